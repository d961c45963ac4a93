// Package work implements the background cache backfill.
//
// # Phases
//
// A run walks the backfill symbols through fixed phases (YTD baselines,
// daily analysis, weekly EMA, forward P/E, quarter-end prices). Each phase
// only fetches what the caches are missing, so a restarted run resumes
// instead of starting over.
//
// # Throttling
//
// YTD baselines are fetched one at a time with SequentialDelay between calls.
// The other phases run through ThrottledMap: at most MaxConcurrency calls are
// in flight and a freed slot waits Delay before launching its next symbol.
//
// A cache is saved after every successful fetch that wrote to it, except
// forward P/E, which is saved once when its phase ends. Progress is published
// every BatchSize completions and once more when a phase finishes.
//
// # Cancellation
//
// Starting a new run cancels the previous one. Events from a superseded run
// are dropped so clients only ever see progress for the current run.
package work
