package task

// Spawn binds a pollable object to a stable task identity and a task-local
// map. It owns Obj exclusively; the only way to drive it is via enter
// (through PollFuture/PollStream), which installs ambient context around
// exactly one poll.
type Spawn[Obj any] struct {
	obj  Obj
	id   uint64
	data *localMap
}

// New binds obj to a freshly allocated task id and an empty task-local map.
func New[Obj any](obj Obj) *Spawn[Obj] {
	return &Spawn[Obj]{
		obj:  obj,
		id:   freshTaskID(),
		data: newLocalMap(),
	}
}

// NewFuture binds a Future[T] to a new Spawn.
func NewFuture[T any](f Future[T]) *Spawn[Future[T]] {
	return New[Future[T]](f)
}

// NewStream binds a Stream[T] to a new Spawn.
func NewStream[T any](s Stream[T]) *Spawn[Stream[T]] {
	return New[Stream[T]](s)
}

// enter installs ambient context (a fresh Task bound to this Spawn's id,
// the given wakeup capability, and an empty event list, plus this Spawn's
// local map) for the duration of body, then restores the prior ambient
// context (if any) on every exit path.
func (s *Spawn[Obj]) enter(up Unpark, body func(obj *Obj)) {
	t := newTask(s.id, up)
	installAmbient(t, s.data, func() {
		body(&s.obj)
	})
}

// ID returns the task id this Spawn was allocated.
func (s *Spawn[Obj]) ID() uint64 { return s.id }

// PollFuture performs one single-step poll of the future bound to s, under
// the supplied wakeup capability.
func PollFuture[T any](s *Spawn[Future[T]], up Unpark) Poll[T] {
	var result Poll[T]
	s.enter(up, func(obj *Future[T]) {
		result = (*obj).Poll()
	})
	return result
}

// PollStream performs one single-step poll of the stream bound to s, under
// the supplied wakeup capability.
func PollStream[T any](s *Spawn[Stream[T]], up Unpark) Poll[StreamItem[T]] {
	var result Poll[StreamItem[T]]
	s.enter(up, func(obj *Stream[T]) {
		result = (*obj).Poll()
	})
	return result
}

// threadParker is the "thread-parker" Unpark implementation: it wraps a
// channel acting as a one-slot mailbox so that Unpark is idempotent (a
// second notification arriving while one is already pending is dropped),
// and any notification racing with park() is still observed, exactly like
// OS thread park/unpark semantics.
type threadParker struct {
	ch chan struct{}
}

func newThreadParker() *threadParker {
	return &threadParker{ch: make(chan struct{}, 1)}
}

func (p *threadParker) Unpark() {
	select {
	case p.ch <- struct{}{}:
	default:
	}
}

func (p *threadParker) park() {
	<-p.ch
}

// WaitFuture is the blocking driver: it polls s on the calling goroutine,
// parking that goroutine whenever the future reports "not ready", until the
// future yields a final value or error.
func WaitFuture[T any](s *Spawn[Future[T]]) (T, error) {
	parker := newThreadParker()
	for {
		p := PollFuture[T](s, parker)
		if p.IsReady() {
			return p.Result()
		}
		parker.park()
	}
}

// WaitStream is the streaming counterpart of WaitFuture: it returns exactly
// one item (or the end-of-stream sentinel, or an error) per call, blocking
// the calling goroutine until that item is available.
func WaitStream[T any](s *Spawn[Stream[T]]) (StreamItem[T], error) {
	parker := newThreadParker()
	for {
		p := PollStream[T](s, parker)
		if p.IsReady() {
			return p.Result()
		}
		parker.park()
	}
}
