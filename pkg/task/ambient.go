package task

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// ambientFrame is the (current task, current local map) pair the original
// implementation keeps in a thread-local Cell. Go has no thread-locals, and
// a poll is always a synchronous call tree on a single goroutine (nested
// futures call Poll directly, never by spawning another goroutine), so the
// pair is scoped per goroutine instead of per OS thread: the closest
// portable, stdlib-only analog of the Rust CELL this module is built from.
type ambientFrame struct {
	task *Task
	data *localMap
}

var (
	ambientMu sync.Mutex
	ambient   = map[uint64]ambientFrame{}
)

// goroutineID parses the numeric goroutine id out of a runtime.Stack dump.
// It is the standard (if inelegant) way to key goroutine-local state from
// pure stdlib, used here only to key the ambient-context table; no other
// part of this package relies on it.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if bytes.HasPrefix(b, []byte(prefix)) {
		b = b[len(prefix):]
	}
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

// installAmbient saves the prior ambient pair for the current goroutine,
// installs the new pair, runs body, and restores the prior pair on every
// exit path (normal return or panic). Nested installs therefore form a
// save/restore stack, reentrant within one goroutine.
func installAmbient(t *Task, data *localMap, body func()) {
	gid := goroutineID()

	ambientMu.Lock()
	prior, hadPrior := ambient[gid]
	ambient[gid] = ambientFrame{task: t, data: data}
	ambientMu.Unlock()

	defer func() {
		ambientMu.Lock()
		if hadPrior {
			ambient[gid] = prior
		} else {
			delete(ambient, gid)
		}
		ambientMu.Unlock()
	}()

	body()
}

// currentAmbient returns the ambient pair for the calling goroutine. It
// panics with "no task is currently running" if no enclosing Spawn.enter
// (or with_unpark_event nesting) has installed one. This is a programmer
// error, not a recoverable condition, matching the core's error taxonomy.
func currentAmbient() (*Task, *localMap) {
	gid := goroutineID()

	ambientMu.Lock()
	frame, ok := ambient[gid]
	ambientMu.Unlock()

	if !ok {
		panic("task: no task is currently running")
	}
	return frame.task, frame.data
}

// Park returns a handle to the currently executing task, for use in
// arranging a later notification. It panics if called outside of a poll
// (outside of Spawn.enter).
func Park() Task {
	t, _ := currentAmbient()
	return t.clone()
}

// WithUnparkEvent extends the currently-installed task's event list with
// one additional (set, id) pair for the duration of body, then restores the
// outer task. It does not mutate the outer Task handle: it installs a new
// Task sharing the same id and wakeup capability but with an extended event
// list, so any Park issued inside body returns handles that trigger the
// additional event on Unpark. Nesting accumulates events in call order.
//
// Panics with "no task is currently running" if there is no ambient task.
func WithUnparkEvent(event UnparkEvent, body func()) {
	t, data := currentAmbient()
	nested := &Task{
		id:     t.id,
		unpark: t.unpark,
		events: t.events.withEvent(event),
	}
	installAmbient(nested, data, body)
}
