//go:build windows

package wepoll2

import (
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// The classic wepoll entry points, backed by a process-wide table of
// live pollers keyed by their port handle. They exist for code ported
// from the C API; new code can use Poller directly.

var (
	pollersMu sync.RWMutex
	pollers   = map[windows.Handle]*Poller{}
)

// EpollCreate creates a poller and returns its handle. size is advisory
// and must be positive, mirroring epoll_create.
func EpollCreate(size int) (windows.Handle, error) {
	if size <= 0 {
		return windows.InvalidHandle, errnoError("epoll_create", windows.ERROR_INVALID_PARAMETER)
	}
	return epollCreate(WithSizeHint(size))
}

// EpollCreate1 creates a poller and returns its handle. flags must be
// zero; no epoll_create1 flag has a meaning here.
func EpollCreate1(flags int) (windows.Handle, error) {
	if flags != 0 {
		return windows.InvalidHandle, errnoError("epoll_create1", windows.ERROR_INVALID_PARAMETER)
	}
	return epollCreate()
}

func epollCreate(opts ...Option) (windows.Handle, error) {
	p, err := NewPoller(opts...)
	if err != nil {
		return windows.InvalidHandle, err
	}
	h := p.port.handle
	pollersMu.Lock()
	pollers[h] = p
	pollersMu.Unlock()
	return h, nil
}

// EpollClose destroys the poller behind ephnd. Closing an unknown or
// already closed handle reports ErrInvalidHandle.
func EpollClose(ephnd windows.Handle) error {
	pollersMu.Lock()
	p, ok := pollers[ephnd]
	delete(pollers, ephnd)
	pollersMu.Unlock()
	if !ok {
		return opError("epoll_close", ErrInvalidHandle, 0)
	}
	return p.Close()
}

func lookupPoller(op string, ephnd windows.Handle) (*Poller, error) {
	pollersMu.RLock()
	p := pollers[ephnd]
	pollersMu.RUnlock()
	if p == nil {
		return nil, opError(op, ErrInvalidHandle, 0)
	}
	return p, nil
}

// EpollCtl adds, modifies or removes the registration for handle. The
// event argument is ignored for EPOLL_CTL_DEL.
func EpollCtl(ephnd windows.Handle, op int, handle windows.Handle, event *EpollEvent) error {
	const name = "epoll_ctl"
	p, err := lookupPoller(name, ephnd)
	if err != nil {
		return err
	}
	switch op {
	case EPOLL_CTL_ADD:
		if event == nil {
			return errnoError(name, windows.ERROR_INVALID_PARAMETER)
		}
		return p.Add(handle, event.Events, event.Data)
	case EPOLL_CTL_MOD:
		if event == nil {
			return errnoError(name, windows.ERROR_INVALID_PARAMETER)
		}
		return p.Modify(handle, event.Events, event.Data)
	case EPOLL_CTL_DEL:
		return p.Delete(handle)
	default:
		return errnoError(name, windows.ERROR_INVALID_PARAMETER)
	}
}

// EpollWait waits up to timeoutMs milliseconds for events; -1 waits
// forever, 0 never blocks.
func EpollWait(ephnd windows.Handle, events []EpollEvent, timeoutMs int) (int, error) {
	return EpollPwait(ephnd, events, timeoutMs, false)
}

// EpollPwait is EpollWait with an alertable flag: a queued user APC may
// interrupt the wait early, reported as zero events with a nil error.
func EpollPwait(ephnd windows.Handle, events []EpollEvent, timeoutMs int, alertable bool) (int, error) {
	p, err := lookupPoller("epoll_pwait", ephnd)
	if err != nil {
		return 0, err
	}
	timeout := time.Duration(-1)
	if timeoutMs >= 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	return p.Wait(events, timeout, alertable)
}

// EpollPwait2 takes the timeout as a timespec, allowing sub-millisecond
// waits; a nil timespec waits forever.
func EpollPwait2(ephnd windows.Handle, events []EpollEvent, ts *windows.Timespec, alertable bool) (int, error) {
	p, err := lookupPoller("epoll_pwait2", ephnd)
	if err != nil {
		return 0, err
	}
	timeout := time.Duration(-1)
	if ts != nil {
		timeout = time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec)
	}
	return p.Wait(events, timeout, alertable)
}
