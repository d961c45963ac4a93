// Package events provides the in-process event bus.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	BackfillStarted   EventType = "BackfillStarted"
	BackfillBatch     EventType = "BackfillBatch"
	BackfillCompleted EventType = "BackfillCompleted"
	BackfillCancelled EventType = "BackfillCancelled"

	QuotesUpdated   EventType = "QuotesUpdated"
	CachesCleared   EventType = "CachesCleared"
	UniverseChanged EventType = "UniverseChanged"
	BackupCompleted EventType = "BackupCompleted"
	ErrorOccurred   EventType = "ErrorOccurred"
)

// Event represents a system event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}
