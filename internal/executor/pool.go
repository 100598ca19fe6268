// ============================================================================
// Worker-Pool Executor
// ============================================================================
//
// Package: internal/executor
// File: pool.go
// Function: a fixed-size goroutine pool implementing task.Executor.
//
// Design Pattern:
//   Adopts the Worker Pool pattern:
//   1. Fixed number of worker goroutines running continuously
//   2. Runs handed to Execute flow through a shared buffered channel
//   3. Avoids the overhead of spawning a goroutine per Run
//
// Architecture:
//   ┌──────────┐
//   │ task.Run │ --Execute()--> queue
//   └──────────┘
//                     ┌─────────────┐
//                     │    Pool     │
//                     │  ┌───────┐  │
//   queue ──────────→ │  │worker1│  │
//                     │  │worker2│  │
//                     │  │worker3│  │
//                     │  └───────┘  │
//                     └─────────────┘
//
// Contract:
//   task.Executor requires that every Run handed to Execute eventually has
//   Run() invoked exactly once, on any goroutine, without the executor
//   holding a lock across the call. Execute here only ever sends on a
//   channel and returns; the invocation itself happens in a worker loop
//   with no lock held.
//
// Graceful Shutdown:
//   Stop() closes stopCh and the queue so workers drain remaining Runs and
//   exit, then waits on a sync.WaitGroup, identical in shape to the
//   teacher's Pool.Stop().
//
// ============================================================================

package executor

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskloom/taskloom/pkg/task"
)

var (
	// ErrPoolClosed indicates Execute was called after Stop.
	ErrPoolClosed = errors.New("executor: pool is closed")
	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("executor: pool already started")
)

// Pool is a fixed-size worker-pool task.Executor.
type Pool struct {
	queue   chan *task.Run
	stopCh  chan struct{}
	wg      sync.WaitGroup
	metrics *Metrics
	log     *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool

	submitted  atomic.Int64
	dispatched atomic.Int64
}

// NewPool creates a Pool with the given queue buffer size. m may be nil, in
// which case metrics are not recorded.
func NewPool(bufferSize int, m *Metrics) *Pool {
	return &Pool{
		queue:   make(chan *task.Run, bufferSize),
		stopCh:  make(chan struct{}),
		metrics: m,
		log:     slog.Default().With("component", "executor"),
	}
}

// Start launches workerCount goroutines draining the queue. Returns
// ErrAlreadyStarted if called more than once.
func (p *Pool) Start(workerCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}

	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}

	p.started = true
	p.log.Info("executor started", "workers", workerCount, "buffer", cap(p.queue))
	return nil
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	for r := range p.queue {
		if p.metrics != nil {
			p.metrics.setQueueDepth(len(p.queue))
		}
		start := time.Now()
		r.Run()
		p.dispatched.Add(1)
		if p.metrics != nil {
			p.metrics.recordDispatch(time.Since(start).Seconds())
		}
	}
	p.log.Debug("worker exiting", "worker", id)
}

// Execute implements task.Executor: it enqueues r for a worker goroutine to
// drive through Run(), never blocking on Run() itself.
func (p *Pool) Execute(r *task.Run) {
	p.submitted.Add(1)
	if p.metrics != nil {
		p.metrics.recordSubmit()
		p.metrics.setQueueDepth(len(p.queue))
	}

	if err := p.enqueue(r); err != nil {
		// The executor capability contract requires every submitted Run
		// eventually be driven, but a Run submitted after shutdown has no
		// live queue to land in; this can only happen if a caller races
		// Execute against Stop, which is a caller bug.
		p.log.Error("run not accepted", "err", err)
	}
}

// enqueue sends r on the queue, returning ErrPoolClosed instead of blocking
// forever if the pool has been (or is being) stopped.
func (p *Pool) enqueue(r *task.Run) (err error) {
	// Stop may close the queue between the stopped check and the send
	// below; a send on the closed queue is reported as ErrPoolClosed.
	defer func() {
		if recover() != nil {
			err = ErrPoolClosed
		}
	}()

	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return ErrPoolClosed
	}

	select {
	case p.queue <- r:
		return nil
	case <-p.stopCh:
		return ErrPoolClosed
	}
}

// QueueDepth reports the number of Runs currently buffered.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// SubmittedCount reports the total number of Execute calls so far
// (initial submissions plus Unpark-driven resubmissions).
func (p *Pool) SubmittedCount() int64 { return p.submitted.Load() }

// DispatchedCount reports the total number of Runs dequeued and driven
// through Run() so far.
func (p *Pool) DispatchedCount() int64 { return p.dispatched.Load() }

// Stop gracefully shuts the pool down: no further Runs are accepted, queued
// Runs are drained by the remaining workers, and Stop blocks until every
// worker goroutine has exited.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)
	close(p.queue)
	p.wg.Wait()
	p.log.Info("executor stopped")
}
