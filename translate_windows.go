//go:build windows

package wepoll2

import "github.com/Berrysoft/wepoll2/internal/win32"

// triggerMode classifies how a registration behaves after a delivery.
type triggerMode uint8

const (
	triggerLevel triggerMode = iota
	triggerEdge
	triggerOneshot
)

// modeForEvents derives the trigger mode from the portable mask.
// EPOLLONESHOT dominates: an edge-triggered one-shot still disarms after
// a single delivery and differs only in the native trigger condition.
func modeForEvents(events uint32) triggerMode {
	switch {
	case events&EPOLLONESHOT != 0:
		return triggerOneshot
	case events&EPOLLET != 0:
		return triggerEdge
	default:
		return triggerLevel
	}
}

// registerFilter maps the portable interest mask to the native
// registration filter. Error readiness has no filter bit; the port
// reports it regardless.
func registerFilter(events uint32) uint16 {
	var filter uint16
	if events&EPOLLIN != 0 {
		filter |= win32.SOCK_NOTIFY_REGISTER_EVENT_IN
	}
	if events&EPOLLOUT != 0 {
		filter |= win32.SOCK_NOTIFY_REGISTER_EVENT_OUT
	}
	if events&EPOLLHUP != 0 {
		filter |= win32.SOCK_NOTIFY_REGISTER_EVENT_HANGUP
	}
	return filter
}

// triggerFlags maps the mask to native trigger flags. Sockets are always
// armed one-shot; persistent modes are recreated by re-arming in the
// wait path after each delivery.
func triggerFlags(events uint32) uint8 {
	flags := uint8(win32.SOCK_NOTIFY_TRIGGER_ONESHOT)
	if events&EPOLLET != 0 {
		flags |= win32.SOCK_NOTIFY_TRIGGER_EDGE
	} else {
		flags |= win32.SOCK_NOTIFY_TRIGGER_LEVEL
	}
	return flags
}

// eventsFromNative translates completion bits back to the portable
// vocabulary. Hangup and error surface even when not requested;
// unrecognized native bits are dropped.
func eventsFromNative(native uint32) uint32 {
	var events uint32
	if native&win32.SOCK_NOTIFY_EVENT_IN != 0 {
		events |= EPOLLIN
	}
	if native&win32.SOCK_NOTIFY_EVENT_OUT != 0 {
		events |= EPOLLOUT
	}
	if native&win32.SOCK_NOTIFY_EVENT_HANGUP != 0 {
		events |= EPOLLHUP
	}
	if native&win32.SOCK_NOTIFY_EVENT_ERR != 0 {
		events |= EPOLLERR
	}
	return events
}

// eventsToNative is the forward direction, used when associating wait
// packets and posting wakeups. Trigger bits do not travel.
func eventsToNative(events uint32) uint32 {
	var native uint32
	if events&EPOLLIN != 0 {
		native |= win32.SOCK_NOTIFY_EVENT_IN
	}
	if events&EPOLLOUT != 0 {
		native |= win32.SOCK_NOTIFY_EVENT_OUT
	}
	if events&EPOLLHUP != 0 {
		native |= win32.SOCK_NOTIFY_EVENT_HANGUP
	}
	if events&EPOLLERR != 0 {
		native |= win32.SOCK_NOTIFY_EVENT_ERR
	}
	return native
}

// checkEvents rejects mask bits outside the supported vocabulary.
func checkEvents(op string, events uint32) error {
	if events&^uint32(supportedEvents) != 0 {
		return opError(op, ErrUnsupportedFlag, 0)
	}
	return nil
}
