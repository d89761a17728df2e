// Package worker provides the bounded pool that runs conversion jobs
// detached from their originating HTTP requests.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrQueueFull is returned by Submit when the job queue is at capacity.
var ErrQueueFull = errors.New("job queue is full")

// Job is one unit of detached work. The context is cancelled when the pool
// shuts down or the job exceeds the pool's job timeout.
type Job func(ctx context.Context) error

// Config represents pool configuration.
type Config struct {
	MaxWorkers int           // maximum number of workers
	QueueSize  int           // job queue size
	JobTimeout time.Duration // timeout for a single job, 0 means unbounded
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers: 10,
		QueueSize:  100,
		JobTimeout: 10 * time.Minute,
	}
}

// Validate validates configuration.
func (cfg *Config) Validate() error {
	if cfg.MaxWorkers < 1 {
		return errors.New("max workers must be greater than 0")
	}
	if cfg.QueueSize < 1 {
		return errors.New("queue size must be greater than 0")
	}
	if cfg.JobTimeout < 0 {
		return errors.New("job timeout must be greater than or equal to 0")
	}
	return nil
}

// Metrics tracks the pool's operational counters.
type Metrics struct {
	ActiveWorkers atomic.Int64
	PendingJobs   atomic.Int64
	CompletedJobs atomic.Int64
	FailedJobs    atomic.Int64
}

// Pool runs submitted jobs on a fixed set of worker goroutines.
type Pool struct {
	maxWorkers int
	queueSize  int
	jobTimeout time.Duration

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics *Metrics
}

// NewPool creates a new pool. A nil config uses defaults.
func NewPool(cfg *Config) *Pool {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		maxWorkers: cfg.MaxWorkers,
		queueSize:  cfg.QueueSize,
		jobTimeout: cfg.JobTimeout,
		jobs:       make(chan Job, cfg.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
		metrics:    &Metrics{},
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop cancels running jobs and waits for workers up to ctx's deadline.
func (p *Pool) Stop(ctx context.Context) {
	p.cancel()
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Submit enqueues a job without blocking the caller.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		p.metrics.PendingJobs.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.runJob(job)
		}
	}
}

func (p *Pool) runJob(job Job) {
	p.metrics.ActiveWorkers.Add(1)
	p.metrics.PendingJobs.Add(-1)

	defer func() {
		p.metrics.ActiveWorkers.Add(-1)
		if r := recover(); r != nil {
			p.metrics.FailedJobs.Add(1)
		}
	}()

	ctx := p.ctx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, p.jobTimeout)
		defer cancel()
	}

	if err := job(ctx); err != nil {
		p.metrics.FailedJobs.Add(1)
		return
	}
	p.metrics.CompletedJobs.Add(1)
}

// GetMetrics returns a snapshot of the pool's counters.
func (p *Pool) GetMetrics() map[string]int64 {
	return map[string]int64{
		"active_workers": p.metrics.ActiveWorkers.Load(),
		"pending_jobs":   p.metrics.PendingJobs.Load(),
		"completed_jobs": p.metrics.CompletedJobs.Load(),
		"failed_jobs":    p.metrics.FailedJobs.Load(),
	}
}

// IsBusy reports whether the pool has no spare capacity.
func (p *Pool) IsBusy() bool {
	return p.metrics.ActiveWorkers.Load() >= int64(p.maxWorkers) ||
		p.metrics.PendingJobs.Load() >= int64(p.queueSize)
}
