// Package wepoll2 emulates the Linux epoll interface on top of a Windows
// I/O completion port.
//
// Socket readiness is registered through ProcessSocketNotifications,
// which queues readiness notifications onto the port, and arbitrary
// waitable handles are attached through NT wait completion packets, which
// fire once per association. Both kinds of completion arrive on the same
// port and are drained by whichever thread calls Wait; there is no
// background thread or thread pool anywhere in the package.
//
// The emulation differs from Linux epoll where the platform forces it to:
//
//   - a socket can be registered with only one poller at a time; adding
//     it to a second poller fails instead of detaching the first,
//   - edge-triggered registrations only observe condition changes that
//     happen after they are armed,
//   - waitable handles behave as one-shot regardless of the requested
//     mode and need a Modify call to observe another signal,
//   - waits may wake slightly before a sub-millisecond timeout elapses
//     because of native timer granularity; such a wake reports zero
//     events, exactly like a timeout.
//
// The package is only functional on Windows.
package wepoll2
