//go:build windows

package wepoll2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Berrysoft/wepoll2/internal/win32"
)

func TestModeForEvents(t *testing.T) {
	cases := []struct {
		name   string
		events uint32
		want   triggerMode
	}{
		{"default is level", EPOLLIN, triggerLevel},
		{"edge", EPOLLIN | EPOLLET, triggerEdge},
		{"oneshot", EPOLLOUT | EPOLLONESHOT, triggerOneshot},
		{"oneshot wins over edge", EPOLLIN | EPOLLET | EPOLLONESHOT, triggerOneshot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, modeForEvents(tc.events))
		})
	}
}

func TestRegisterFilter(t *testing.T) {
	assert.Equal(t, uint16(win32.SOCK_NOTIFY_REGISTER_EVENT_IN), registerFilter(EPOLLIN))
	assert.Equal(t,
		uint16(win32.SOCK_NOTIFY_REGISTER_EVENT_IN|win32.SOCK_NOTIFY_REGISTER_EVENT_OUT|win32.SOCK_NOTIFY_REGISTER_EVENT_HANGUP),
		registerFilter(EPOLLIN|EPOLLOUT|EPOLLHUP))
	// Error interest has no filter bit; it is always reported.
	assert.Equal(t, uint16(win32.SOCK_NOTIFY_REGISTER_EVENT_NONE), registerFilter(EPOLLERR))
}

func TestTriggerFlagsAlwaysOneshot(t *testing.T) {
	assert.Equal(t, uint8(win32.SOCK_NOTIFY_TRIGGER_ONESHOT|win32.SOCK_NOTIFY_TRIGGER_LEVEL), triggerFlags(EPOLLIN))
	assert.Equal(t, uint8(win32.SOCK_NOTIFY_TRIGGER_ONESHOT|win32.SOCK_NOTIFY_TRIGGER_EDGE), triggerFlags(EPOLLIN|EPOLLET))
	assert.Equal(t, uint8(win32.SOCK_NOTIFY_TRIGGER_ONESHOT|win32.SOCK_NOTIFY_TRIGGER_LEVEL), triggerFlags(EPOLLOUT|EPOLLONESHOT))
}

func TestEventsFromNative(t *testing.T) {
	native := uint32(win32.SOCK_NOTIFY_EVENT_IN | win32.SOCK_NOTIFY_EVENT_ERR)
	assert.Equal(t, uint32(EPOLLIN|EPOLLERR), eventsFromNative(native))

	// Unknown native bits are dropped, including REMOVE.
	assert.Equal(t, uint32(0), eventsFromNative(win32.SOCK_NOTIFY_EVENT_REMOVE))
	assert.Equal(t, uint32(EPOLLHUP), eventsFromNative(win32.SOCK_NOTIFY_EVENT_HANGUP|0x1000))
}

func TestEventsRoundTrip(t *testing.T) {
	for _, events := range []uint32{EPOLLIN, EPOLLOUT, EPOLLHUP, EPOLLERR, EPOLLIN | EPOLLOUT | EPOLLHUP | EPOLLERR} {
		assert.Equal(t, events, eventsFromNative(eventsToNative(events)))
	}
}

func TestCheckEventsRejectsUnknownBits(t *testing.T) {
	require.NoError(t, checkEvents("ctl", EPOLLIN|EPOLLOUT|EPOLLET|EPOLLONESHOT))
	err := checkEvents("ctl", EPOLLIN|1<<4)
	require.ErrorIs(t, err, ErrUnsupportedFlag)
}

func TestRearmAfterDelivery(t *testing.T) {
	assert.Equal(t, rearmReissue, rearmAfterDelivery(triggerLevel, stateArmed))
	assert.Equal(t, rearmReissue, rearmAfterDelivery(triggerEdge, stateArmed))
	assert.Equal(t, rearmDisarm, rearmAfterDelivery(triggerOneshot, stateArmed))
	assert.Equal(t, rearmNone, rearmAfterDelivery(triggerLevel, stateDisarmed))
	assert.Equal(t, rearmNone, rearmAfterDelivery(triggerOneshot, stateDisarmed))
}

func TestNtRelativeTimeout(t *testing.T) {
	assert.Equal(t, int64(0), ntRelativeTimeout(0))
	// 100 ns ticks, rounded up, negated for a relative NT wait.
	assert.Equal(t, int64(-1), ntRelativeTimeout(time.Nanosecond))
	assert.Equal(t, int64(-1), ntRelativeTimeout(100*time.Nanosecond))
	assert.Equal(t, int64(-2), ntRelativeTimeout(101*time.Nanosecond))
	assert.Equal(t, int64(-10_000), ntRelativeTimeout(time.Millisecond))
}

func TestEpollDataAccessors(t *testing.T) {
	var d EpollData
	d.SetUint64(0xdeadbeefcafebabe)
	assert.Equal(t, uint64(0xdeadbeefcafebabe), d.Uint64())
	assert.Equal(t, uint32(0xcafebabe), d.Uint32())

	d.SetFd(-1)
	assert.Equal(t, int32(-1), d.Fd())

	d.SetUint32(42)
	assert.Equal(t, uint64(42), d.Uint64())
}

func TestRegTableKeysNeverReused(t *testing.T) {
	table := newRegTable(0)
	a := &registration{handle: 1}
	table.insert(a)
	table.remove(a)
	b := &registration{handle: 1}
	table.insert(b)
	require.NotEqual(t, a.key, b.key)
	require.Nil(t, table.lookupKey(a.key))
	require.Same(t, b, table.lookupKey(b.key))
	require.Same(t, b, table.lookup(1))
}
