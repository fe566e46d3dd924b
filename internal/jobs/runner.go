package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/snarg/drive-transcriber/internal/metrics"
	"github.com/snarg/drive-transcriber/internal/notify"
)

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("job runner stopped")

const statusAccepted = "accepted"

// JobAccepted is the immediate acknowledgement of a submitted job.
type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Stats reports job counters since the runner was created.
type Stats struct {
	Accepted             int64 `json:"accepted"`
	InFlight             int64 `json:"in_flight"`
	Succeeded            int64 `json:"succeeded"`
	Failed               int64 `json:"failed"`
	PendingNotifications int   `json:"pending_notifications"`
}

// Processor runs one job to completion.
type Processor interface {
	Process(ctx context.Context, log zerolog.Logger, jobID string, req Request) (string, error)
}

// Notifier delivers a job outcome. It must not return until delivery has
// been attempted.
type Notifier interface {
	Notify(ctx context.Context, dest string, outcome notify.Outcome)
}

// RunnerOptions configures the job runner.
type RunnerOptions struct {
	Processor Processor
	Notifier  Notifier
	// DefaultDestination is used when a request carries no callback URL.
	DefaultDestination string
	NotifyWorkers      int
	OutcomeBuffer      int
	MaxConcurrent      int           // 0 = unbounded
	NewID              func() string // nil = uuid
	Log                zerolog.Logger
}

type delivery struct {
	jobID   string
	dest    string
	outcome notify.Outcome
}

// Runner accepts jobs and runs each one on its own goroutine. Outcomes are
// handed to a fixed set of notifier workers over a channel.
type Runner struct {
	processor   Processor
	notifier    Notifier
	defaultDest string
	workers     int
	newID       func() string
	sem         chan struct{}
	outcomes    chan delivery
	log         zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	jobsWG  sync.WaitGroup
	notifWG sync.WaitGroup

	accepted  atomic.Int64
	inFlight  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewRunner creates a job runner. Call Start before submitting.
func NewRunner(opts RunnerOptions) *Runner {
	workers := opts.NotifyWorkers
	if workers < 1 {
		workers = 1
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	r := &Runner{
		processor:   opts.Processor,
		notifier:    opts.Notifier,
		defaultDest: opts.DefaultDestination,
		workers:     workers,
		newID:       newID,
		outcomes:    make(chan delivery, opts.OutcomeBuffer),
		log:         opts.Log,
	}
	if opts.MaxConcurrent > 0 {
		r.sem = make(chan struct{}, opts.MaxConcurrent)
	}
	return r
}

// Start launches the notifier workers.
func (r *Runner) Start() {
	for i := 0; i < r.workers; i++ {
		r.notifWG.Add(1)
		go r.notifyWorker(i)
	}
	r.log.Info().
		Int("notify_workers", r.workers).
		Int("max_concurrent", cap(r.sem)).
		Msg("job runner started")
}

// Stop refuses new jobs, waits for running jobs to finish and for their
// outcomes to be delivered. Running jobs are not cancelled.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.jobsWG.Wait()
	close(r.outcomes)
	r.notifWG.Wait()
	r.log.Info().
		Int64("succeeded", r.succeeded.Load()).
		Int64("failed", r.failed.Load()).
		Msg("job runner stopped")
}

// Submit starts req in the background and returns at once.
func (r *Runner) Submit(req Request) (JobAccepted, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return JobAccepted{}, ErrStopped
	}

	id := r.newID()
	r.jobsWG.Add(1)
	r.accepted.Add(1)
	metrics.JobsSubmittedTotal.Inc()
	go r.run(id, req)

	return JobAccepted{JobID: id, Status: statusAccepted}, nil
}

// Stats returns current job counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Accepted:             r.accepted.Load(),
		InFlight:             r.inFlight.Load(),
		Succeeded:            r.succeeded.Load(),
		Failed:               r.failed.Load(),
		PendingNotifications: len(r.outcomes),
	}
}

// InFlight returns the number of jobs currently in the pipeline.
func (r *Runner) InFlight() int64 { return r.inFlight.Load() }

// PendingNotifications returns the number of undelivered outcomes.
func (r *Runner) PendingNotifications() int { return len(r.outcomes) }

func (r *Runner) run(id string, req Request) {
	defer r.jobsWG.Done()
	log := r.log.With().Str("job_id", id).Logger()

	if r.sem != nil {
		r.sem <- struct{}{}
		defer func() { <-r.sem }()
	}

	r.inFlight.Add(1)
	start := time.Now()
	text, err := r.process(log, id, req)
	r.inFlight.Add(-1)

	var outcome notify.Outcome
	if err != nil {
		r.failed.Add(1)
		kind := KindOf(err)
		metrics.JobsCompletedTotal.WithLabelValues(string(kind)).Inc()
		log.Error().Err(err).
			Str("kind", string(kind)).
			Dur("elapsed", time.Since(start)).
			Msg("job failed")
		outcome = notify.Failure(err)
	} else {
		r.succeeded.Add(1)
		metrics.JobsCompletedTotal.WithLabelValues("success").Inc()
		log.Info().
			Int("chars", len(text)).
			Dur("elapsed", time.Since(start)).
			Msg("job complete")
		outcome = notify.Success(text)
	}

	dest := req.CallbackURL
	if dest == "" {
		dest = r.defaultDest
	}
	r.outcomes <- delivery{jobID: id, dest: dest, outcome: outcome}
}

// process runs the pipeline, turning a panic into a job failure so the
// job still produces exactly one outcome.
func (r *Runner) process(log zerolog.Logger, id string, req Request) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("job panicked")
			err = &Error{Kind: KindInternal, Err: fmt.Errorf("internal error: %v", rec)}
		}
	}()
	return r.processor.Process(context.Background(), log, id, req)
}

func (r *Runner) notifyWorker(id int) {
	defer r.notifWG.Done()
	log := r.log.With().Int("notify_worker", id).Logger()

	for d := range r.outcomes {
		r.notifier.Notify(context.Background(), d.dest, d.outcome)
		log.Debug().Str("job_id", d.jobID).Msg("outcome handled")
	}
}
