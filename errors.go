package wepoll2

import (
	"errors"
	"fmt"
	"syscall"
)

// Error kinds. Every failing call returns an *OpError that unwraps to one
// of these sentinels, so callers can classify failures with errors.Is.
// Timeouts and alertable interruptions are not failures; Wait reports
// them as zero events with a nil error.
var (
	// ErrInvalidHandle marks an unknown poller or identity, including a
	// second Close of the same poller.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrAlreadyAssociated marks an identity that already has a
	// registration here or is bound to another completion port.
	ErrAlreadyAssociated = errors.New("handle already associated")

	// ErrUnsupportedFlag marks an interest mask bit this backend cannot
	// honor.
	ErrUnsupportedFlag = errors.New("unsupported event flag")

	// ErrResourceExhausted marks native object or quota exhaustion.
	ErrResourceExhausted = errors.New("resources exhausted")

	// ErrClosed marks an operation on a poller that has been torn down,
	// including Wait calls woken by a concurrent Close.
	ErrClosed = errors.New("poller closed")
)

// OpError records the failing operation, the classified error kind and
// the originating Win32 error code, when the failure came from the OS.
type OpError struct {
	Op   string
	Code syscall.Errno // zero when the failure did not come from the OS
	Kind error
}

func (e *OpError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("wepoll2: %s: %v (errno %d)", e.Op, e.Kind, uint32(e.Code))
	}
	return fmt.Sprintf("wepoll2: %s: %v", e.Op, e.Kind)
}

// Unwrap exposes the error kind for errors.Is.
func (e *OpError) Unwrap() error { return e.Kind }

func opError(op string, kind error, code syscall.Errno) *OpError {
	return &OpError{Op: op, Kind: kind, Code: code}
}
