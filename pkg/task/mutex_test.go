package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnparkMutex_StartPollIsIdempotentUntilComplete(t *testing.T) {
	m := NewUnparkMutex[int]()
	m.StartPoll() // Waiting -> Polling

	// A prior Notify may have already advanced the state past Polling by
	// the time the resubmitted payload is actually run; StartPoll must
	// tolerate that rather than treat it as a double-entry bug.
	require.NotPanics(t, m.StartPoll)

	m.Complete()
	assert.Panics(t, func() { m.StartPoll() })
}

func TestUnparkMutex_WaitStoresPayload(t *testing.T) {
	m := NewUnparkMutex[int]()
	m.StartPoll()

	zero, ok := m.Wait(42)
	assert.True(t, ok)
	assert.Equal(t, 0, zero)

	payload, ok := m.Notify()
	assert.True(t, ok)
	assert.Equal(t, 42, payload)
}

func TestUnparkMutex_NotifyDuringPollCollapsesToRepoll(t *testing.T) {
	m := NewUnparkMutex[int]()
	m.StartPoll()

	// A notification races in while the poll is still in flight.
	_, scheduled := m.Notify()
	assert.False(t, scheduled, "a notify during an in-flight poll must not resubmit")

	// wait() must observe Repoll and hand the payload straight back.
	payload, waited := m.Wait(7)
	assert.False(t, waited)
	assert.Equal(t, 7, payload)

	// The repoll consumed the pending notification; a further wait parks normally.
	zero, waited := m.Wait(8)
	assert.True(t, waited)
	assert.Equal(t, 0, zero)
}

func TestUnparkMutex_NotifyWhileRepollIsNoOp(t *testing.T) {
	m := NewUnparkMutex[int]()
	m.StartPoll()
	m.Notify() // -> Repoll

	_, scheduled := m.Notify()
	assert.False(t, scheduled)
}

func TestUnparkMutex_CompleteAbsorbsFurtherNotifies(t *testing.T) {
	m := NewUnparkMutex[int]()
	m.StartPoll()
	m.Complete()

	_, scheduled := m.Notify()
	assert.False(t, scheduled)

	require.NotPanics(t, m.Complete)
}

func TestUnparkMutex_WaitPanicsFromWaitingOrComplete(t *testing.T) {
	m := NewUnparkMutex[int]()
	assert.Panics(t, func() { m.Wait(0) })

	m2 := NewUnparkMutex[int]()
	m2.StartPoll()
	m2.Complete()
	assert.Panics(t, func() { m2.Wait(0) })
}
