// Package scheduler runs the periodic jobs of the service on cron schedules.
package scheduler

import (
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/quotebar/internal/modules/market_hours"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron  *cron.Cron
	log   zerolog.Logger
	names map[cron.EntryID]string
}

// New creates a new scheduler. Schedules accept an optional seconds field and
// are evaluated in exchange time (America/New_York), whatever the host zone.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(market_hours.Eastern),
			cron.WithParser(cron.NewParser(
				cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
			)),
		),
		log:   log.With().Str("component", "scheduler").Logger(),
		names: make(map[cron.EntryID]string),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule. A job may be registered under
// several schedules. AddJob must not race with Start.
// Schedule examples:
//   - "0 5 0 * * *"   - 00:05:00 Eastern every day
//   - "0 30 15 * * FRI" - Fridays at 15:30 Eastern
//   - "*/2 * * * *"   - every 2 minutes
//   - "@every 60s"    - every 60 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}
	s.names[id] = job.Name()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// NextRuns returns the next n firings of the named job strictly after t,
// across all of its schedules, in Eastern time.
func (s *Scheduler) NextRuns(name string, after time.Time, n int) []time.Time {
	after = after.In(s.cron.Location())

	var runs []time.Time
	for _, entry := range s.cron.Entries() {
		if s.names[entry.ID] != name {
			continue
		}
		next := after
		for i := 0; i < n; i++ {
			next = entry.Schedule.Next(next)
			if next.IsZero() {
				break
			}
			runs = append(runs, next)
		}
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Before(runs[j]) })
	if len(runs) > n {
		runs = runs[:n]
	}
	return runs
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

func (s *Scheduler) run(job Job) {
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	if err := job.Run(); err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Msg("Job failed")
		return
	}
	s.log.Debug().Str("job", job.Name()).Msg("Job completed")
}
