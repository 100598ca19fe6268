package task

// UnitFuture is the erased unit-result, unit-error future shape an Executor
// schedules. Typed futures are expected to be wrapped into this shape by
// higher layers before submission; this package only needs the unit-unit
// form for Run.
type UnitFuture = Future[struct{}]

// Executor is the external scheduling capability: given a Run, it must
// eventually invoke r.Run() exactly once, on any goroutine, without holding
// any locks across the call. Failing to ever run it is a resource leak, not
// a safety violation.
type Executor interface {
	Execute(r *Run)
}

// inner is shared by a Run and by every Task handle issued during its
// polls: the bound executor, and the UnparkMutex serializing poll against
// notify.
type inner struct {
	exec  Executor
	mutex *UnparkMutex[*Run]
}

// Unpark implements the Unpark capability handed out to Task handles bound
// to this Run: a notification either retrieves the Run from Waiting and
// resubmits it to the executor, or is absorbed by an in-flight poll.
func (in *inner) Unpark() {
	if r, ok := in.mutex.Notify(); ok {
		in.exec.Execute(r)
	}
}

// Run is the scheduled unit handed to an Executor: a Spawn over a
// unit-unit erased future, plus the shared Inner used to serialize polling
// against notification.
type Run struct {
	spawn *Spawn[UnitFuture]
	inner *inner
}

// Execute binds sp to a fresh Inner and hands the resulting Run to exec.
// Consumes sp: a Spawn is moved into a Run once scheduled.
func Execute(sp *Spawn[UnitFuture], exec Executor) {
	in := &inner{exec: exec, mutex: NewUnparkMutex[*Run]()}
	exec.Execute(&Run{spawn: sp, inner: in})
}

// Run drives the bound future by polling it until it completes, looping
// immediately (without re-submitting to the executor) whenever a
// notification races in mid-poll, and otherwise storing itself in the
// UnparkMutex so a future Notify can resubmit it. This is the only place
// Run-to-executor resubmission is gated.
//
// Entry to Run is evidence the bound UnparkMutex is about to be driven
// through StartPoll; Run must be invoked at most once per scheduling.
func (r *Run) Run() {
	spawn := r.spawn
	in := r.inner

	in.mutex.StartPoll()

	for {
		p := PollFuture[struct{}](spawn, in)
		if p.IsReady() {
			in.mutex.Complete()
			return
		}

		next := &Run{spawn: spawn, inner: in}
		resumed, waited := in.mutex.Wait(next)
		if waited {
			return
		}
		spawn = resumed.spawn
	}
}
