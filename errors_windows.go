//go:build windows

package wepoll2

import (
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

// errnoKind classifies a Win32 error code into the package error kinds.
// Codes with no portable meaning keep the errno itself as the kind.
func errnoKind(e syscall.Errno) error {
	switch e {
	case windows.ERROR_ALREADY_EXISTS:
		return ErrAlreadyAssociated
	case windows.ERROR_NOT_FOUND, windows.ERROR_INVALID_HANDLE, windows.ERROR_INVALID_PARAMETER:
		return ErrInvalidHandle
	case windows.ERROR_NOT_ENOUGH_MEMORY, windows.ERROR_NOT_ENOUGH_QUOTA, windows.WSAENOBUFS:
		return ErrResourceExhausted
	default:
		return e
	}
}

func errnoError(op string, e syscall.Errno) *OpError {
	return opError(op, errnoKind(e), e)
}

// osError adapts an error returned by an x/sys wrapper, recovering the
// errno when there is one.
func osError(op string, err error) *OpError {
	var e syscall.Errno
	if errors.As(err, &e) {
		return errnoError(op, e)
	}
	return opError(op, err, 0)
}
