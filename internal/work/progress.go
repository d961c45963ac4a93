package work

import (
	"sync"
	"time"
)

// EventEmitter defines the interface for emitting events
type EventEmitter interface {
	Emit(event string, data any)
}

// Event names for the backfill lifecycle
const (
	EventBackfillStarted   = "BackfillStarted"
	EventBackfillBatch     = "BackfillBatch"
	EventBackfillCompleted = "BackfillCompleted"
	EventBackfillCancelled = "BackfillCancelled"
)

// DefaultBatchSize is how many completions a phase accumulates before it
// notifies listeners.
const DefaultBatchSize = 10

// BatchEvent is delivered when a phase has persisted a batch of new values.
// Listeners use Phase to refresh only the affected cache.
type BatchEvent struct {
	RunID     string `json:"run_id"`
	Phase     string `json:"phase"`
	Completed int    `json:"completed"`
	Final     bool   `json:"final"`
}

// RunStartedEvent is emitted when a backfill run begins.
type RunStartedEvent struct {
	RunID   string `json:"run_id"`
	Symbols int    `json:"symbols"`
}

// RunFinishedEvent is emitted when a run completes or is cancelled.
type RunFinishedEvent struct {
	RunID    string                `json:"run_id"`
	Duration time.Duration         `json:"duration_ms"`
	Phases   map[string]PhaseStats `json:"phases"`
}

// phaseProgress counts completions within one phase and notifies every
// batchSize and once more at the end.
type phaseProgress struct {
	mu        sync.Mutex
	phase     Phase
	batchSize int
	completed int
	notified  int
	notify    func(phase Phase, completed int, final bool)
}

func newPhaseProgress(phase Phase, batchSize int, notify func(Phase, int, bool)) *phaseProgress {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &phaseProgress{phase: phase, batchSize: batchSize, notify: notify}
}

// Add records one completion.
func (p *phaseProgress) Add() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	if p.completed-p.notified >= p.batchSize {
		p.notified = p.completed
		p.notify(p.phase, p.completed, false)
	}
}

// Finish sends the final notification if the phase did any work.
func (p *phaseProgress) Finish() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.completed > 0 {
		p.notify(p.phase, p.completed, true)
	}
	return p.completed
}
