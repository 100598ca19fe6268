package task

import "sync"

// mutexState is one of the four states of UnparkMutex.
type mutexState int

const (
	// stateWaiting: no poll active, no pending notification. The payload
	// (a Run, from the caller's point of view) is held inside the mutex.
	stateWaiting mutexState = iota
	// statePolling: a poll is currently executing; no notification has
	// been observed since it started.
	statePolling
	// stateRepoll: a poll is executing and at least one notification
	// arrived during it; another poll must happen immediately after the
	// current one returns "not ready".
	stateRepoll
	// stateComplete: the future has finished. Further notifications are
	// no-ops and no payload is held.
	stateComplete
)

// UnparkMutex is the three-state-transition synchronizer (four states
// counting Complete) that serializes polling against notification without
// holding a lock across the poll itself. T is the payload type carried
// across suspension (a Run, in this package's use of it).
//
// This implementation favors a plain mutex guarding (state, payload)
// together over hand-rolled atomics: a single critical section is easier
// to verify against the no-lost-wakeup invariant than a lock-free one, and
// the representation is not otherwise prescribed.
type UnparkMutex[T any] struct {
	mu      sync.Mutex
	state   mutexState
	payload T
}

// NewUnparkMutex constructs a mutex in the Waiting state holding no
// payload; the first poll is expected to begin immediately afterward via
// StartPoll.
func NewUnparkMutex[T any]() *UnparkMutex[T] {
	return &UnparkMutex[T]{state: stateWaiting}
}

// StartPoll marks the mutex as owned for an about-to-begin poll. Callers
// must hold exclusive ownership evidence for the payload before calling
// this: either a freshly constructed mutex (Waiting, no payload ever
// stored, the very first poll, dispatched directly rather than via Notify)
// or a payload just retrieved via Notify.
//
// In the latter case the mutex may already read Polling, or even Repoll:
// Notify's Waiting→Polling transition happens as soon as it retrieves the
// payload for resubmission, which can race arbitrarily far ahead of the
// executor actually dequeuing and running it, including a second,
// concurrent notify arriving before that happens, which is exactly what
// Repoll is for. StartPoll only performs the Waiting→Polling transition
// itself for the fresh-construction case; Polling and Repoll are accepted
// as already representing "a poll is now owed" and left untouched.
func (m *UnparkMutex[T]) StartPoll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case stateWaiting:
		m.state = statePolling
	case statePolling, stateRepoll:
		// Already marked for polling by a prior Notify; proceed.
	default:
		panic("task: StartPoll called while UnparkMutex is Complete")
	}
}

// Wait is called after a poll returns "not ready". It attempts
// Polling→Waiting, storing payload for the next Notify to retrieve. If a
// notification raced in during the poll (state is Repoll), it instead
// transitions Repoll→Polling and hands the same payload straight back,
// signaling the caller to poll again immediately rather than park.
//
// Returns (zero, true) on success (payload now stored, caller should
// return). Returns (payload, false) when a repoll is required (caller
// should loop, polling again with the returned payload).
func (m *UnparkMutex[T]) Wait(payload T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case statePolling:
		m.state = stateWaiting
		m.payload = payload
		var zero T
		return zero, true
	case stateRepoll:
		m.state = statePolling
		return payload, false
	default:
		panic("task: Wait called while UnparkMutex is not Polling/Repoll")
	}
}

// Notify is called by any goroutine when the task should be woken. If the
// mutex is Waiting, it transitions to Polling and returns the stored
// payload so the caller can resubmit it for scheduling. If it is Polling,
// it transitions to Repoll so the ongoing poll will loop once more before
// parking. If it is already Repoll or Complete, it is a no-op.
//
// Returns (payload, true) when the caller must resubmit the payload for
// scheduling; (zero, false) otherwise, meaning the notification was
// absorbed by an in-flight poll, or the future has already completed.
func (m *UnparkMutex[T]) Notify() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case stateWaiting:
		m.state = statePolling
		p := m.payload
		var zero T
		m.payload = zero
		return p, true
	case statePolling:
		m.state = stateRepoll
	}
	var zero T
	return zero, false
}

// Complete transitions any non-Complete state to Complete and releases any
// stored payload. Subsequent Notify calls become permanent no-ops.
func (m *UnparkMutex[T]) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateComplete {
		var zero T
		m.payload = zero
		m.state = stateComplete
	}
}
