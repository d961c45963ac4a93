package events

// CachesClearedData contains data for CachesCleared events
type CachesClearedData struct {
	Caches    []string `json:"caches"`
	RunID     string   `json:"runId,omitempty"`
	Restarted bool     `json:"restarted"`
}

// UniverseChangedData contains data for UniverseChanged events
type UniverseChangedData struct {
	Watchlist []string `json:"watchlist"`
	Symbols   int      `json:"symbols"`
	RunID     string   `json:"runId,omitempty"`
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Rotated  int    `json:"rotated"`
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Source  string         `json:"source"`
	Error   string         `json:"error"`
	Context map[string]any `json:"context,omitempty"`
}

// NewErrorData builds the payload for an ErrorOccurred event.
func NewErrorData(source string, err error, context map[string]any) *ErrorEventData {
	data := &ErrorEventData{Source: source, Context: context}
	if err != nil {
		data.Error = err.Error()
	}
	return data
}
