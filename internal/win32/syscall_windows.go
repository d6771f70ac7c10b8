//go:build windows

// Package win32 binds the completion-port notification APIs that
// golang.org/x/sys/windows does not export: ProcessSocketNotifications
// from ws2_32.dll and the completion-removal and wait-completion-packet
// calls from ntdll.dll.
package win32

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modntdll    = windows.NewLazySystemDLL("ntdll.dll")
	modws2_32   = windows.NewLazySystemDLL("ws2_32.dll")
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procNtRemoveIoCompletionEx          = modntdll.NewProc("NtRemoveIoCompletionEx")
	procNtCreateWaitCompletionPacket    = modntdll.NewProc("NtCreateWaitCompletionPacket")
	procNtAssociateWaitCompletionPacket = modntdll.NewProc("NtAssociateWaitCompletionPacket")
	procNtCancelWaitCompletionPacket    = modntdll.NewProc("NtCancelWaitCompletionPacket")
	procProcessSocketNotifications      = modws2_32.NewProc("ProcessSocketNotifications")
	procPostQueuedCompletionStatus      = modkernel32.NewProc("PostQueuedCompletionStatus")
)

// ProcessSocketNotifications applies the given registrations to the port
// and, when entries is non-empty, drains up to len(entries) completions
// in the same call. The return value is the Win32 error code of the call
// itself; zero means success. Per-registration outcomes land in each
// entry's RegistrationResult.
func ProcessSocketNotifications(port windows.Handle, regs []SockNotifyRegistration, timeoutMs uint32, entries []OverlappedEntry, received *uint32) syscall.Errno {
	var regp *SockNotifyRegistration
	if len(regs) > 0 {
		regp = &regs[0]
	}
	var entp *OverlappedEntry
	if len(entries) > 0 {
		entp = &entries[0]
	}
	r0, _, _ := syscall.SyscallN(procProcessSocketNotifications.Addr(),
		uintptr(port),
		uintptr(uint32(len(regs))),
		uintptr(unsafe.Pointer(regp)),
		uintptr(timeoutMs),
		uintptr(uint32(len(entries))),
		uintptr(unsafe.Pointer(entp)),
		uintptr(unsafe.Pointer(received)))
	return syscall.Errno(r0)
}

// NtRemoveIoCompletionEx drains up to len(entries) completions from the
// port. timeout is a relative NT interval (negative 100 ns units); nil
// blocks until a completion arrives. An alertable wait can be cut short
// by a queued user APC, reported as STATUS_USER_APC with no entries.
func NtRemoveIoCompletionEx(port windows.Handle, entries []OverlappedEntry, removed *uint32, timeout *int64, alertable bool) windows.NTStatus {
	var entp *OverlappedEntry
	if len(entries) > 0 {
		entp = &entries[0]
	}
	var alert uintptr
	if alertable {
		alert = 1
	}
	r0, _, _ := syscall.SyscallN(procNtRemoveIoCompletionEx.Addr(),
		uintptr(port),
		uintptr(unsafe.Pointer(entp)),
		uintptr(uint32(len(entries))),
		uintptr(unsafe.Pointer(removed)),
		uintptr(unsafe.Pointer(timeout)),
		alert)
	return windows.NTStatus(r0)
}

// NtCreateWaitCompletionPacket creates an unassociated wait completion
// packet object.
func NtCreateWaitCompletionPacket(handle *windows.Handle, access uint32) windows.NTStatus {
	r0, _, _ := syscall.SyscallN(procNtCreateWaitCompletionPacket.Addr(),
		uintptr(unsafe.Pointer(handle)),
		uintptr(access),
		0)
	return windows.NTStatus(r0)
}

// NtAssociateWaitCompletionPacket arms packet so that one completion
// entry {key, info} is posted to port when target becomes signaled. The
// association is consumed by the first signal.
func NtAssociateWaitCompletionPacket(packet, port, target windows.Handle, key uintptr, status windows.NTStatus, info uintptr) windows.NTStatus {
	r0, _, _ := syscall.SyscallN(procNtAssociateWaitCompletionPacket.Addr(),
		uintptr(packet),
		uintptr(port),
		uintptr(target),
		key,
		0, // ApcContext, unused
		uintptr(status),
		info,
		0) // AlreadySignaled, not requested
	return windows.NTStatus(r0)
}

// NtCancelWaitCompletionPacket detaches packet from its target.
// STATUS_PENDING means the packet already fired and is being delivered,
// so it cannot be reused.
func NtCancelWaitCompletionPacket(packet windows.Handle, removeSignaled bool) windows.NTStatus {
	var remove uintptr
	if removeSignaled {
		remove = 1
	}
	r0, _, _ := syscall.SyscallN(procNtCancelWaitCompletionPacket.Addr(),
		uintptr(packet),
		remove)
	return windows.NTStatus(r0)
}

// PostQueuedCompletionStatus posts a completion entry with a raw
// overlapped value. Unlike the x/sys wrapper it takes the full
// pointer-width key and overlapped slots, so drained entries can be
// reposted verbatim and non-pointer payloads can be carried.
func PostQueuedCompletionStatus(port windows.Handle, transferred uint32, key uintptr, overlapped uintptr) error {
	r0, _, e1 := syscall.SyscallN(procPostQueuedCompletionStatus.Addr(),
		uintptr(port),
		uintptr(transferred),
		key,
		overlapped)
	if r0 == 0 {
		if e1 != 0 {
			return e1
		}
		return syscall.EINVAL
	}
	return nil
}
