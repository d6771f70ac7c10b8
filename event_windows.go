//go:build windows

package wepoll2

import "golang.org/x/sys/windows"

// Event flags understood by the poller. Values match the Linux epoll ABI
// for the subset of flags this backend can honor; any other bit is
// rejected at registration time.
const (
	EPOLLIN      = 0x1
	EPOLLOUT     = 0x2
	EPOLLHUP     = 0x4
	EPOLLERR     = 0x40
	EPOLLET      = 0x100
	EPOLLONESHOT = 0x200
)

// supportedEvents is every bit a registration may carry.
const supportedEvents = EPOLLIN | EPOLLOUT | EPOLLHUP | EPOLLERR | EPOLLET | EPOLLONESHOT

// Control opcodes for EpollCtl.
const (
	EPOLL_CTL_ADD = 1
	EPOLL_CTL_MOD = 2
	EPOLL_CTL_DEL = 3
)

// EpollData is the user data union attached to a registration and copied
// verbatim into every event delivered for it. It holds one of a
// pointer-sized value, a 32- or 64-bit integer, a socket or a handle;
// the accessors only reinterpret the stored bits.
type EpollData uint64

func (d *EpollData) SetUint64(v uint64)         { *d = EpollData(v) }
func (d *EpollData) SetUint32(v uint32)         { *d = EpollData(v) }
func (d *EpollData) SetFd(fd int32)             { *d = EpollData(uint32(fd)) }
func (d *EpollData) SetSocket(s windows.Handle) { *d = EpollData(s) }
func (d *EpollData) SetHandle(h windows.Handle) { *d = EpollData(h) }

func (d EpollData) Uint64() uint64         { return uint64(d) }
func (d EpollData) Uint32() uint32         { return uint32(d) }
func (d EpollData) Fd() int32              { return int32(uint32(d)) }
func (d EpollData) Socket() windows.Handle { return windows.Handle(d) }
func (d EpollData) Handle() windows.Handle { return windows.Handle(d) }

// EpollEvent is one delivered event. The two unexported fields preserve
// the wepoll ABI slots for the overlapped pointer and the internal status
// value; they are implementation detail and never meaningful to callers.
type EpollEvent struct {
	Data       EpollData
	overlapped uintptr
	internal   uintptr
	Events     uint32
}
