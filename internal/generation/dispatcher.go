package generation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"uigen/internal/domain"
)

// ErrQueueFull is returned by Enqueue when every worker is busy and the buffer is full.
// The job stays PENDING and is picked up by the next poll.
var ErrQueueFull = errors.New("dispatch queue full")

// ProcessFunc runs one job to a terminal state.
type ProcessFunc func(ctx context.Context, jobID string) error

// Claimer hands out PENDING jobs that no other worker holds.
type Claimer interface {
	ClaimPending(ctx context.Context, limit int) ([]*domain.GenerationJob, error)
}

// DispatcherOptions configure the worker pool.
type DispatcherOptions struct {
	Workers   int
	QueueSize int
	// PollInterval enables claiming PENDING jobs from Claimer. Zero disables polling.
	PollInterval time.Duration
	Claimer      Claimer
}

// Dispatcher is a bounded worker pool. Jobs arrive through Enqueue or by polling.
type Dispatcher struct {
	process ProcessFunc
	queue   chan string
	workers int
	poll    time.Duration
	claimer Claimer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(process ProcessFunc, opts DispatcherOptions, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	return &Dispatcher{
		process: process,
		queue:   make(chan string, opts.QueueSize),
		workers: opts.Workers,
		poll:    opts.PollInterval,
		claimer: opts.Claimer,
		log:     log.With().Str("component", "dispatcher").Logger(),
	}
}

// Start launches the workers. They stop when ctx is cancelled; use Wait to drain.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i)
	}
	if d.claimer != nil && d.poll > 0 {
		d.wg.Add(1)
		go d.pollLoop(ctx)
	}
	d.log.Info().Int("workers", d.workers).Dur("poll", d.poll).Msg("dispatcher: started")
}

// Enqueue hands a job to the pool without blocking.
func (d *Dispatcher) Enqueue(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case d.queue <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context, n int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-d.queue:
			d.run(ctx, n, id)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, worker int, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("job_id", jobID).Msg("dispatcher: job panicked")
		}
	}()
	if err := d.process(ctx, jobID); err != nil {
		d.log.Warn().Err(err).Int("worker", worker).Str("job_id", jobID).Msg("dispatcher: job not processed")
	}
}

func (d *Dispatcher) pollLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		free := cap(d.queue) - len(d.queue)
		if free <= 0 {
			continue
		}
		jobs, err := d.claimer.ClaimPending(ctx, free)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				d.log.Error().Err(err).Msg("dispatcher: failed to claim jobs")
			}
			continue
		}
		for _, job := range jobs {
			select {
			case d.queue <- job.ID():
			case <-ctx.Done():
				return
			}
		}
	}
}
