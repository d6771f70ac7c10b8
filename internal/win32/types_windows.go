//go:build windows

package win32

import "golang.org/x/sys/windows"

// Socket notification registration operations.
const (
	SOCK_NOTIFY_OP_NONE    = 0x00
	SOCK_NOTIFY_OP_ENABLE  = 0x01
	SOCK_NOTIFY_OP_DISABLE = 0x02
	SOCK_NOTIFY_OP_REMOVE  = 0x04
)

// Trigger flags for socket notification registrations. Exactly one of
// ONESHOT/PERSISTENT and one of LEVEL/EDGE must be set when enabling.
const (
	SOCK_NOTIFY_TRIGGER_ONESHOT    = 0x01
	SOCK_NOTIFY_TRIGGER_PERSISTENT = 0x02
	SOCK_NOTIFY_TRIGGER_LEVEL      = 0x04
	SOCK_NOTIFY_TRIGGER_EDGE       = 0x08
)

// Event filters accepted at registration time. Error readiness cannot be
// filtered; the port always reports it.
const (
	SOCK_NOTIFY_REGISTER_EVENT_NONE   = 0x00
	SOCK_NOTIFY_REGISTER_EVENT_IN     = 0x01
	SOCK_NOTIFY_REGISTER_EVENT_OUT    = 0x02
	SOCK_NOTIFY_REGISTER_EVENT_HANGUP = 0x04
)

// Events reported in the transferred-bytes field of completion entries.
const (
	SOCK_NOTIFY_EVENT_IN     = 0x01
	SOCK_NOTIFY_EVENT_OUT    = 0x02
	SOCK_NOTIFY_EVENT_HANGUP = 0x04
	SOCK_NOTIFY_EVENT_ERR    = 0x40
	SOCK_NOTIFY_EVENT_REMOVE = 0x80
)

// SO_TYPE from winsock2.h; not exposed by x/sys/windows.
const SO_TYPE = 0x1008

// SockNotifyRegistration mirrors SOCK_NOTIFY_REGISTRATION from
// winsock2.h. RegistrationResult is filled in by the kernel per entry and
// must be checked separately from the call's own return code.
type SockNotifyRegistration struct {
	Socket             windows.Handle
	CompletionKey      uintptr
	EventFilter        uint16
	Operation          uint8
	TriggerFlags       uint8
	RegistrationResult uint32
}

// OverlappedEntry mirrors OVERLAPPED_ENTRY. The overlapped slot is kept
// as a raw uintptr so drained entries can be reposted verbatim and
// non-pointer payloads can ride in it.
type OverlappedEntry struct {
	CompletionKey    uintptr
	Overlapped       uintptr
	Internal         uintptr
	BytesTransferred uint32
}
