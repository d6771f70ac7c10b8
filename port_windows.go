//go:build windows

package wepoll2

import (
	"golang.org/x/sys/windows"

	"github.com/Berrysoft/wepoll2/internal/win32"
)

// postKey is the completion key of user-posted wakeup entries. Table
// keys start above it.
const postKey uintptr = 0

// port owns the underlying I/O completion port handle.
type port struct {
	handle windows.Handle
}

func newPort() (*port, error) {
	h, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, osError("create completion port", err)
	}
	return &port{handle: h}, nil
}

func (p *port) post(transferred uint32, key uintptr, overlapped uintptr) error {
	return win32.PostQueuedCompletionStatus(p.handle, transferred, key, overlapped)
}

// drain removes up to len(entries) completions, honoring the relative NT
// timeout. A nil timeout blocks until a completion arrives.
func (p *port) drain(entries []win32.OverlappedEntry, timeout *int64, alertable bool) (int, windows.NTStatus) {
	var removed uint32
	st := win32.NtRemoveIoCompletionEx(p.handle, entries, &removed, timeout, alertable)
	return int(removed), st
}

func (p *port) close() error {
	return windows.CloseHandle(p.handle)
}
