package work

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/quotebar/internal/cache"
	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/modules/marketdata"
	"github.com/aristath/quotebar/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DataSource fetches the values the backfill fills in. A false result means
// the value is unavailable right now; the symbol stays missing for next run.
type DataSource interface {
	FetchYTDBaseline(ctx context.Context, symbol string) (float64, bool)
	FetchDailyAnalysis(ctx context.Context, symbol string) (marketdata.DailyAnalysis, bool)
	FetchWeeklyEMA(ctx context.Context, symbol string, cachedDaily *float64) (cache.EMAValues, bool)
	FetchForwardPE(ctx context.Context, symbol string) (map[string]float64, bool)
	FetchQuarterEndPrice(ctx context.Context, symbol string, quarter formulas.Quarter) (float64, bool)
}

// RunState is the backfill state machine position.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCancelled RunState = "cancelled"
)

// PhaseStats reports how many symbols a phase found missing and filled.
type PhaseStats struct {
	Missing int `json:"missing"`
	Filled  int `json:"filled"`
}

// Status is a snapshot of the backfiller.
type Status struct {
	State      RunState              `json:"state"`
	RunID      string                `json:"run_id,omitempty"`
	Phase      string                `json:"phase,omitempty"`
	StartedAt  *time.Time            `json:"started_at,omitempty"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	Phases     map[string]PhaseStats `json:"phases,omitempty"`
}

// BackfillOptions tunes a Backfiller.
type BackfillOptions struct {
	// Throttle paces the concurrent phases.
	Throttle ThrottleOptions
	// SequentialDelay separates calls in the YTD phase.
	SequentialDelay time.Duration
	// BatchSize is the notification interval in completions.
	BatchSize int
	// RequestContext decorates the context handed to the data source, for
	// example to disable HTTP retries for background requests.
	RequestContext func(context.Context) context.Context
}

// DefaultBackfillOptions returns the conservative production pacing.
func DefaultBackfillOptions() BackfillOptions {
	return BackfillOptions{
		Throttle:        BackfillThrottle,
		SequentialDelay: BackfillThrottle.Delay,
		BatchSize:       DefaultBatchSize,
	}
}

// Backfiller fills cache gaps for the whole symbol universe in the
// background. Only one run is active at a time; starting a new run cancels
// the previous one, and the previous run never notifies after that.
type Backfiller struct {
	source  DataSource
	caches  *cache.Caches
	emitter EventEmitter
	opts    BackfillOptions
	now     func() time.Time
	log     zerolog.Logger

	mu     sync.Mutex
	runID  string
	cancel context.CancelFunc
	done   chan struct{}
	status Status

	// notifyMu is held while a notification is checked and delivered, so
	// that once Start or Stop returns no stale notification is in flight.
	notifyMu sync.Mutex
}

// NewBackfiller creates an idle backfiller. emitter may be nil.
func NewBackfiller(source DataSource, caches *cache.Caches, emitter EventEmitter, opts BackfillOptions, log zerolog.Logger) *Backfiller {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Backfiller{
		source:  source,
		caches:  caches,
		emitter: emitter,
		opts:    opts,
		now:     time.Now,
		log:     log.With().Str("component", "backfill").Logger(),
		status:  Status{State: StateIdle},
	}
}

// Start cancels any active run and begins a new one over the universe. The
// new run waits for the previous one to stop before its first phase.
// Returns the new run id.
func (b *Backfiller) Start(universe *config.Universe) string {
	b.notifyMu.Lock()
	b.mu.Lock()

	if b.cancel != nil {
		b.cancel()
	}
	prev := b.done

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:           uuid.NewString(),
		ctx:          ctx,
		symbols:      universe.BackfillSymbols(),
		fundamentals: universe.FundamentalsSymbols(),
	}
	started := b.now()
	b.runID = r.id
	b.cancel = cancel
	b.done = make(chan struct{})
	b.status = Status{
		State:     StateRunning,
		RunID:     r.id,
		StartedAt: &started,
		Phases:    make(map[string]PhaseStats),
	}
	done := b.done

	b.mu.Unlock()
	b.notifyMu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		if prev != nil {
			<-prev
		}
		b.execute(r)
	}()
	return r.id
}

// Stop cancels the active run, if any, without waiting for it.
func (b *Backfiller) Stop() {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}
}

// Wait blocks until the current run finishes or ctx is done.
func (b *Backfiller) Wait(ctx context.Context) error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the backfiller.
func (b *Backfiller) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.status
	if b.status.Phases != nil {
		s.Phases = make(map[string]PhaseStats, len(b.status.Phases))
		for k, v := range b.status.Phases {
			s.Phases[k] = v
		}
	}
	return s
}

// run is one backfill pass.
type run struct {
	id           string
	ctx          context.Context
	symbols      []string
	fundamentals []string
}

func (b *Backfiller) execute(r *run) {
	log := b.log.With().Str("run_id", r.id).Logger()
	start := b.now()

	if r.ctx.Err() != nil {
		b.finish(r, start, log)
		return
	}

	if changed := b.caches.InvalidateStale(); len(changed) > 0 {
		log.Info().Strs("caches", changed).Msg("Invalidated stale caches before backfill")
	}

	b.emit(r, EventBackfillStarted, RunStartedEvent{RunID: r.id, Symbols: len(r.symbols)})
	log.Info().Int("symbols", len(r.symbols)).Msg("Backfill started")

	for _, step := range phaseTable {
		if r.ctx.Err() != nil {
			break
		}
		b.setPhase(r, step.phase)

		stats := step.run(b, r)
		b.recordPhase(r, step.phase, stats)

		log.Debug().
			Str("phase", step.phase.String()).
			Int("missing", stats.Missing).
			Int("filled", stats.Filled).
			Msg("Backfill phase finished")
	}

	b.finish(r, start, log)
}

func (b *Backfiller) finish(r *run, start time.Time, log zerolog.Logger) {
	cancelled := r.ctx.Err() != nil
	finished := b.now()

	b.mu.Lock()
	current := b.runID == r.id
	var phases map[string]PhaseStats
	if current {
		b.status.Phase = ""
		b.status.FinishedAt = &finished
		b.status.State = StateIdle
		if cancelled {
			b.status.State = StateCancelled
		}
		phases = b.status.Phases
	}
	b.mu.Unlock()

	if cancelled {
		log.Info().Dur("duration", finished.Sub(start)).Msg("Backfill cancelled")
		if b.emitter != nil && current {
			b.emitter.Emit(EventBackfillCancelled, RunFinishedEvent{RunID: r.id, Duration: finished.Sub(start)})
		}
		return
	}

	log.Info().Dur("duration", finished.Sub(start)).Msg("Backfill completed")
	b.emit(r, EventBackfillCompleted, RunFinishedEvent{RunID: r.id, Duration: finished.Sub(start), Phases: phases})
}

func (b *Backfiller) setPhase(r *run, p Phase) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.runID == r.id {
		b.status.Phase = p.String()
	}
}

func (b *Backfiller) recordPhase(r *run, p Phase, stats PhaseStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.runID == r.id {
		b.status.Phases[p.String()] = stats
	}
}

// stale reports whether r has been cancelled or superseded. Callers hold
// notifyMu.
func (b *Backfiller) stale(r *run) bool {
	if r.ctx.Err() != nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runID != r.id
}

func (b *Backfiller) emit(r *run, event string, data any) {
	if b.emitter == nil {
		return
	}
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()
	if b.stale(r) {
		return
	}
	b.emitter.Emit(event, data)
}

func (b *Backfiller) notifier(r *run) func(Phase, int, bool) {
	return func(p Phase, completed int, final bool) {
		b.emit(r, EventBackfillBatch, BatchEvent{RunID: r.id, Phase: p.String(), Completed: completed, Final: final})
	}
}

func (b *Backfiller) requestContext(ctx context.Context) context.Context {
	if b.opts.RequestContext == nil {
		return ctx
	}
	return b.opts.RequestContext(ctx)
}
