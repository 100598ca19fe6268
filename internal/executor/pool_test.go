package executor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloom/taskloom/pkg/task"
)

func TestPool_DrivesSubmittedRunToCompletion(t *testing.T) {
	p := NewPool(8, nil)
	require.NoError(t, p.Start(2))
	defer p.Stop()

	var polls int32
	done := make(chan struct{})

	f := task.FutureFunc[struct{}](func() task.Poll[struct{}] {
		n := atomic.AddInt32(&polls, 1)
		if n < 3 {
			h := task.Park()
			go h.Unpark()
			return task.Pending[struct{}]()
		}
		close(done)
		return task.Ready(struct{}{})
	})

	task.Execute(task.NewFuture[struct{}](f), p)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run never completed")
	}

	assert.GreaterOrEqual(t, int(atomic.LoadInt32(&polls)), 3)
}

func TestPool_StartTwiceReturnsError(t *testing.T) {
	p := NewPool(1, nil)
	require.NoError(t, p.Start(1))
	defer p.Stop()

	assert.ErrorIs(t, p.Start(1), ErrAlreadyStarted)
}

func TestPool_StopIsIdempotent(t *testing.T) {
	p := NewPool(1, nil)
	require.NoError(t, p.Start(1))

	p.Stop()
	assert.NotPanics(t, p.Stop)
}

func TestPool_QueueDepthReflectsBacklog(t *testing.T) {
	p := NewPool(8, nil)
	// Intentionally not started: Runs queue up without being dequeued.
	block := make(chan struct{})

	f := task.FutureFunc[struct{}](func() task.Poll[struct{}] {
		<-block
		return task.Ready(struct{}{})
	})

	task.Execute(task.NewFuture[struct{}](f), p)
	assert.Eventually(t, func() bool { return p.QueueDepth() == 1 }, time.Second, time.Millisecond)

	close(block)
	require.NoError(t, p.Start(1))
	defer p.Stop()
	assert.Eventually(t, func() bool { return p.QueueDepth() == 0 }, time.Second, time.Millisecond)
}
