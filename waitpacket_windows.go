//go:build windows

package wepoll2

import (
	"golang.org/x/sys/windows"

	"github.com/Berrysoft/wepoll2/internal/win32"
)

// waitPacket wraps an NT wait completion packet. A packet fires exactly
// once per association and must be re-associated to observe another
// signal of its target.
type waitPacket struct {
	handle windows.Handle
}

func newWaitPacket() (*waitPacket, error) {
	var h windows.Handle
	st := win32.NtCreateWaitCompletionPacket(&h, windows.GENERIC_READ|windows.GENERIC_WRITE)
	if st != windows.STATUS_SUCCESS {
		return nil, errnoError("create wait packet", st.Errno())
	}
	return &waitPacket{handle: h}, nil
}

// associate arms the packet: when target signals, one completion entry
// carrying key is posted to port, with info reported as the entry's
// transferred byte count.
func (p *waitPacket) associate(port, target windows.Handle, key uintptr, info uintptr) error {
	st := win32.NtAssociateWaitCompletionPacket(p.handle, port, target, key, windows.STATUS_SUCCESS, info)
	if st != windows.STATUS_SUCCESS {
		return errnoError("associate wait packet", st.Errno())
	}
	return nil
}

// cancel detaches the packet from its target. It reports false when the
// packet already fired and is in flight, in which case it cannot be
// re-associated and a fresh packet is needed.
func (p *waitPacket) cancel() (bool, error) {
	st := win32.NtCancelWaitCompletionPacket(p.handle, false)
	switch st {
	case windows.STATUS_SUCCESS, windows.STATUS_CANCELLED:
		return true, nil
	case windows.STATUS_PENDING:
		return false, nil
	default:
		return false, errnoError("cancel wait packet", st.Errno())
	}
}

func (p *waitPacket) close() error {
	return windows.CloseHandle(p.handle)
}
