// Package workers provides a bounded worker pool for dispatching job runs.
// The scheduler submits due jobs to the pool so that one slow job never
// delays the poll loop.
package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aatumaykin/taskmill/internal/logger"
)

// Constants for worker pool configuration
const (
	DefaultPoolSize  = 4
	DefaultQueueSize = 64
)

// Task is a unit of work dispatched to the pool. Run receives the pool
// context and must honor its cancellation.
type Task struct {
	JobName string
	Run     func(ctx context.Context)
}

// PoolMetrics tracks execution counts for the worker pool.
type PoolMetrics struct {
	TasksSubmitted uint64
	TasksCompleted uint64
}

// Pool manages a fixed set of goroutine workers draining a task queue.
type Pool struct {
	taskQueue chan Task
	workers   int
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *logger.Logger

	submitted atomic.Uint64
	completed atomic.Uint64
}

// NewPool creates a worker pool with the specified size and queue capacity.
// Non-positive values fall back to the defaults.
func NewPool(workers, queueSize int, log *logger.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultPoolSize
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		taskQueue: make(chan Task, queueSize),
		workers:   workers,
		ctx:       ctx,
		cancel:    cancel,
		logger:    log,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool",
		logger.Field{Key: "workers", Value: p.workers},
		logger.Field{Key: "queue_size", Value: cap(p.taskQueue)})

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit enqueues a task for execution. It blocks while the queue is full
// and returns an error only when the pool is shutting down.
func (p *Pool) Submit(task Task) error {
	select {
	case p.taskQueue <- task:
		p.submitted.Add(1)
		p.logger.DebugCtx(p.ctx, "task submitted",
			logger.Field{Key: "job", Value: task.JobName})
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Stop shuts the pool down, waiting for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()

	m := p.Metrics()
	p.logger.Info("worker pool stopped",
		logger.Field{Key: "tasks_submitted", Value: m.TasksSubmitted},
		logger.Field{Key: "tasks_completed", Value: m.TasksCompleted})
}

// Metrics returns a snapshot of the pool counters.
func (p *Pool) Metrics() PoolMetrics {
	return PoolMetrics{
		TasksSubmitted: p.submitted.Load(),
		TasksCompleted: p.completed.Load(),
	}
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// QueueSize returns the number of tasks waiting in the queue.
func (p *Pool) QueueSize() int {
	return len(p.taskQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.DebugCtx(p.ctx, "worker started",
		logger.Field{Key: "worker_id", Value: id})

	for {
		select {
		case task := <-p.taskQueue:
			p.process(id, task)

		case <-p.ctx.Done():
			p.logger.DebugCtx(p.ctx, "worker stopping",
				logger.Field{Key: "worker_id", Value: id})
			return
		}
	}
}

func (p *Pool) process(workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker panic recovered",
				nil,
				logger.Field{Key: "worker_id", Value: workerID},
				logger.Field{Key: "job", Value: task.JobName},
				logger.Field{Key: "panic", Value: r})
		}
	}()

	start := time.Now()
	task.Run(p.ctx)
	p.completed.Add(1)

	p.logger.DebugCtx(p.ctx, "task processed",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "job", Value: task.JobName},
		logger.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
}
