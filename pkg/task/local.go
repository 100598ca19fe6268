package task

// localMap is the per-task heterogeneous key to value store, the task-local
// map. It is owned exclusively by one Spawn and is only ever reachable while
// that Spawn is the ambient current task on the current goroutine: the
// UnparkMutex invariant of "at most one poll in flight" means that holder is
// always exactly one goroutine at a time, so no internal locking is needed
// here.
type localMap struct {
	values map[any]any
}

func newLocalMap() *localMap {
	return &localMap{values: make(map[any]any)}
}

// LocalKey declares one task-local slot of type T, lazily populated on
// first access within a given Spawn via the initializer passed to
// NewLocalKey. Each LocalKey has its own identity (its own pointer), so
// two keys with the same T never collide.
type LocalKey[T any] struct {
	init func() T
}

// NewLocalKey declares a new task-local key whose value is produced by init
// the first time it is accessed within a given Spawn.
func NewLocalKey[T any](init func() T) *LocalKey[T] {
	return &LocalKey[T]{init: init}
}

// With invokes body with a pointer to this key's value in the currently
// polling task, initializing it first if this is the first access within
// the current Spawn. Panics if called outside of a poll.
func (k *LocalKey[T]) With(body func(*T)) {
	_, data := currentAmbient()
	body(localValue(data, k))
}

func localValue[T any](m *localMap, k *LocalKey[T]) *T {
	if v, ok := m.values[k]; ok {
		return v.(*T)
	}
	v := k.init()
	boxed := &v
	m.values[k] = boxed
	return boxed
}
