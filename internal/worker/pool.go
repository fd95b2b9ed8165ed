package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool.
type Job interface {
	Execute(ctx context.Context)
}

// Pool runs submitted jobs on a fixed number of workers. Jobs report their
// results through their own captured state; the pool only bounds parallelism.
type Pool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
}

// NewPool creates a pool with the given worker count.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, workers*2),
	}
}

// Start launches the workers. Each worker drains the queue until it is closed
// or ctx is cancelled; on cancellation queued jobs are dropped.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-p.jobQueue:
					if !ok {
						return
					}
					job.Execute(ctx)
				}
			}
		}()
	}
}

// Submit enqueues a job. Blocks when the queue is full; returns immediately
// if ctx is already cancelled.
func (p *Pool) Submit(ctx context.Context, job Job) {
	select {
	case <-ctx.Done():
	case p.jobQueue <- job:
	}
}

// Wait closes the queue and blocks until all in-flight jobs finish.
func (p *Pool) Wait() {
	close(p.jobQueue)
	p.wg.Wait()
}
