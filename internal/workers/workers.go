package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/models"
)

// DefaultQueueSize is the enqueue buffer used when the caller does not
// configure its own.
const DefaultQueueSize = 64

// ErrQueueFull is returned by Enqueue when the job buffer has no room
// left. The caller decides whether to retry or surface the error.
var ErrQueueFull = errors.New("job queue is full")

// ErrPoolStopped is returned by Enqueue after Shutdown.
var ErrPoolStopped = errors.New("worker pool is stopped")

type job struct {
	id  string
	run JobFunc
}

// Pool is a fixed-size worker pool with an in-memory progress tracker.
// Progress entries survive job completion so that pollers arriving after
// the job finished still see its final state. Entries are forgotten on
// restart; a poller asking about an unknown job is answered with the
// pending state.
type Pool struct {
	jobs    chan job
	workers int
	logger  *logger.Logger

	mu       sync.RWMutex
	progress map[string]models.JobProgress

	closeMu sync.Mutex
	closed  bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool constructs a pool of the given number of workers. Neither
// workers nor the queue buffer may be zero; non-positive values fall back
// to one worker and [DefaultQueueSize].
func NewPool(workers, queueSize int, logger *logger.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		jobs:     make(chan job, queueSize),
		workers:  workers,
		logger:   logger,
		progress: make(map[string]models.JobProgress),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run starts the worker goroutines and returns immediately. It implements
// [Worker].
func (p *Pool) Run() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info().Int("workers", p.workers).Msg("worker pool started")
}

// Shutdown stops accepting new jobs, cancels the running ones and waits
// for every worker to exit.
func (p *Pool) Shutdown() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	p.closeMu.Unlock()

	p.cancel()
	close(p.jobs)
	p.wg.Wait()

	p.logger.Info().Msg("worker pool stopped")
}

// Enqueue registers the job with the tracker in the pending state and
// hands it to the next free worker. Returns [ErrQueueFull] when the buffer
// is exhausted and [ErrPoolStopped] after Shutdown.
func (p *Pool) Enqueue(jobID string, run JobFunc) error {
	// closeMu is held over the send so Shutdown cannot close the
	// channel between the check and the send.
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.closed {
		return ErrPoolStopped
	}

	p.setProgress(jobID, models.JobProgress{JobID: jobID, State: models.JobStatePending})

	select {
	case p.jobs <- job{id: jobID, run: run}:
		return nil
	default:
		p.forget(jobID)
		return ErrQueueFull
	}
}

// Progress returns the tracked state of a job. Unknown job ids answer as
// pending: the poller may be ahead of the worker or the pool may have
// restarted since.
func (p *Pool) Progress(jobID string) models.JobProgress {
	p.mu.RLock()
	defer p.mu.RUnlock()

	progress, ok := p.progress[jobID]
	if !ok {
		return models.JobProgress{JobID: jobID, State: models.JobStatePending}
	}

	return progress
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for next := range p.jobs {
		log := p.logger.GetChildLogger()

		log.Info().
			Int("worker", id).
			Str("job_id", next.id).
			Msg("job started")

		report := func(progress models.JobProgress) {
			progress.JobID = next.id
			p.setProgress(next.id, progress)
		}

		err := next.run(p.ctx, report)
		p.finalize(next.id, err)

		if err != nil {
			log.Err(err).
				Int("worker", id).
				Str("job_id", next.id).
				Msg("job failed")
			continue
		}

		log.Info().
			Int("worker", id).
			Str("job_id", next.id).
			Msg("job finished")
	}
}

// finalize makes the tracker consistent with the job outcome even when the
// job never reported a terminal state itself.
func (p *Pool) finalize(jobID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	progress := p.progress[jobID]
	progress.JobID = jobID

	if err != nil {
		progress.State = models.JobStateFailed
		if progress.Description == "" {
			progress.Description = err.Error()
		}
	} else if progress.State != models.JobStateDone {
		progress.State = models.JobStateDone
	}

	p.progress[jobID] = progress
}

func (p *Pool) setProgress(jobID string, progress models.JobProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress[jobID] = progress
}

func (p *Pool) forget(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.progress, jobID)
}
