// ============================================================================
// Taskloom CLI - Demo workloads
// ============================================================================
//
// Package: internal/cli
// File: demo.go
// Purpose: small futures/streams exercising pkg/task end to end, standing in
// for the teacher's simulated job payloads (internal/worker/worker.go's
// execute()) now that there is no job payload to execute, just a future to
// drive to completion.
//
// ============================================================================

package cli

import (
	"fmt"
	"time"

	"github.com/taskloom/taskloom/internal/eventset"
	"github.com/taskloom/taskloom/pkg/task"
)

// demoWakeEvents records which wake reasons (one id per demo future/stream
// below) have fired when their handles were unparked; repeated wakes with
// the same reason are kept once. It exercises EventSet and
// UnparkEvent end to end rather than leaving the interface unused outside
// pkg/task's own tests.
var demoWakeEvents = eventset.New()

const (
	wakeEventCountdown uint64 = 1
	wakeEventTick      uint64 = 2
)

// countdownFuture resolves to n after parking n times, each time arranging
// its own wakeup after a short delay, a minimal stand-in for "a future that
// depends on an external event" without reaching for real I/O.
func countdownFuture(n int, delay time.Duration) task.Future[int] {
	remaining := n
	return task.FutureFunc[int](func() task.Poll[int] {
		if remaining <= 0 {
			return task.Ready(n)
		}
		remaining--
		var h task.Task
		task.WithUnparkEvent(task.NewUnparkEvent(demoWakeEvents, wakeEventCountdown), func() {
			h = task.Park()
		})
		time.AfterFunc(delay, h.Unpark)
		return task.Pending[int]()
	})
}

// tickStream emits count ints, one every delay, then ends. Each item takes
// two polls: the first parks and arms a timer, the second (once the timer
// fires and unparks the handle) emits the item and re-arms for the next.
func tickStream(count int, delay time.Duration) task.Stream[int] {
	emitted := 0
	armed := false
	return task.StreamFunc[int](func() task.Poll[task.StreamItem[int]] {
		if emitted >= count {
			return task.Ready(task.End[int]())
		}
		if !armed {
			armed = true
			var h task.Task
			task.WithUnparkEvent(task.NewUnparkEvent(demoWakeEvents, wakeEventTick), func() {
				h = task.Park()
			})
			time.AfterFunc(delay, h.Unpark)
			return task.Pending[task.StreamItem[int]]()
		}
		emitted++
		armed = false
		return task.Ready(task.Item(emitted))
	})
}

// drainStream drives a stream to completion with the blocking driver
// (task.WaitStream), printing each item as it arrives. It is its own tiny
// wrapper rather than reused verbatim because it needs to log progress,
// which pkg/task's WaitStream deliberately does not do.
func drainStream(label string, sp *task.Spawn[task.Stream[int]]) {
	for {
		item, err := task.WaitStream[int](sp)
		if err != nil {
			fmt.Printf("%s: stream error: %v\n", label, err)
			return
		}
		if item.Done {
			fmt.Printf("%s: stream ended\n", label)
			return
		}
		fmt.Printf("%s: item %d\n", label, item.Value)
	}
}
