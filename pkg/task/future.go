// Package task implements the cooperative task/poll/notify protocol that
// drives lazily-polled futures and streams to completion: the UnparkMutex
// state machine, task-local storage, ambient "current task" context, and
// the wake-reason event list, plus a blocking driver for running a future
// directly on the calling goroutine.
package task

// Poll is the result of a single-step advance of a Future[T]. It is either
// ready with a value, ready with an error, or not yet ready (Pending).
type Poll[T any] struct {
	pending bool
	val     T
	err     error
}

// Ready constructs a completed Poll carrying a value.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{val: v}
}

// ReadyErr constructs a completed Poll carrying an error.
func ReadyErr[T any](err error) Poll[T] {
	return Poll[T]{err: err}
}

// Pending constructs a Poll reporting "not ready yet".
func Pending[T any]() Poll[T] {
	return Poll[T]{pending: true}
}

// IsPending reports whether the future has not yet produced a final result.
func (p Poll[T]) IsPending() bool { return p.pending }

// IsReady reports whether the future has produced a final value or error.
func (p Poll[T]) IsReady() bool { return !p.pending }

// Result returns the value and error carried by a ready Poll. Calling it on
// a pending Poll returns the zero value and a nil error; callers must check
// IsPending first.
func (p Poll[T]) Result() (T, error) {
	return p.val, p.err
}

// Future is a state machine that, when polled, either yields a final value,
// yields an error, or reports "not yet ready" and expects to be re-polled
// once progress becomes possible. Implementations that return Pending must
// first have called Park (directly or transitively) to obtain a Task handle
// and arranged for that handle's Unpark to be invoked when they can make
// progress.
type Future[T any] interface {
	Poll() Poll[T]
}

// StreamItem is one element produced by a Stream, or the end-of-stream
// sentinel when Done is true.
type StreamItem[T any] struct {
	Done  bool
	Value T
}

// End constructs the end-of-stream sentinel.
func End[T any]() StreamItem[T] {
	return StreamItem[T]{Done: true}
}

// Item constructs a non-terminal stream element.
func Item[T any](v T) StreamItem[T] {
	return StreamItem[T]{Value: v}
}

// Stream is a pollable producing a sequence of values terminated by an
// end-of-stream sentinel or an error.
type Stream[T any] interface {
	Poll() Poll[StreamItem[T]]
}

// FutureFunc adapts a plain poll function to the Future interface.
type FutureFunc[T any] func() Poll[T]

func (f FutureFunc[T]) Poll() Poll[T] { return f() }

// StreamFunc adapts a plain poll function to the Stream interface.
type StreamFunc[T any] func() Poll[StreamItem[T]]

func (f StreamFunc[T]) Poll() Poll[StreamItem[T]] { return f() }
