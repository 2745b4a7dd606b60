package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool manages a fixed set of workers executing jobs concurrently. The
// verification pipeline uses it to fan claims out; the batch command uses it
// to fan documents out. Jobs observe the context the pool was created with,
// so caller deadlines and cancellation propagate into every job.
//
// Workers append results to a shared slice as they finish, so any number of
// jobs can be submitted before Wait is called: a full job queue exerts
// backpressure on Submit, but never deadlocks.
type Pool struct {
	workers  int
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	results []Result
}

// NewPool creates a worker pool with the specified number of workers. Jobs
// inherit ctx; cancelling it aborts in-flight and queued work.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, workers*2),
		ctx:      poolCtx,
		cancel:   cancel,
	}
}

// Start starts the worker goroutines
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			p.mu.Lock()
			p.results = append(p.results, result)
			p.mu.Unlock()
		}
	}
}

// Submit submits a job for execution. It blocks while the queue is full and
// every worker is busy; workers keep draining, so the wait is bounded by job
// runtime, not by result collection.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Wait acts as the barrier: it blocks until every submitted job has finished
// and returns all results. Completion order is not meaningful; callers join
// results by their own keys.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results
}

// Shutdown stops the pool immediately, abandoning queued jobs
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
