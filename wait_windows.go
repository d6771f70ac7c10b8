//go:build windows

package wepoll2

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/Berrysoft/wepoll2/internal/win32"
)

// Drain buffers are pooled: Wait runs on the hot path and the entry
// slice would otherwise be reallocated on every call.
var drainBuffers = sync.Pool{
	New: func() any { return new([]win32.OverlappedEntry) },
}

func getDrainBuffer(n int) *[]win32.OverlappedEntry {
	bp := drainBuffers.Get().(*[]win32.OverlappedEntry)
	if cap(*bp) < n {
		*bp = make([]win32.OverlappedEntry, n)
	}
	*bp = (*bp)[:n]
	return bp
}

// Wait blocks until at least one completion is available, the timeout
// elapses, or, when alertable is set, a queued user APC runs. A negative
// timeout waits forever. The return count is bounded by len(events);
// completions beyond that stay queued for the next call. Zero means the
// wait timed out or was interrupted, which is not an error.
//
// The native timer is coarser than the requested duration, so the call
// may wake slightly early; callers must treat an early zero-event return
// exactly like a timeout.
func (p *Poller) Wait(events []EpollEvent, timeout time.Duration, alertable bool) (int, error) {
	const op = "wait"
	if len(events) == 0 {
		return 0, errnoError(op, windows.ERROR_INVALID_PARAMETER)
	}
	if p.closed.Load() {
		return 0, opError(op, ErrClosed, 0)
	}

	bp := getDrainBuffer(len(events))
	defer drainBuffers.Put(bp)
	entries := *bp

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		var ntTimeout *int64
		if timeout >= 0 {
			remaining := timeout
			if !deadline.IsZero() {
				remaining = max(time.Until(deadline), 0)
			}
			t := ntRelativeTimeout(remaining)
			ntTimeout = &t
		}

		n, st := p.port.drain(entries, ntTimeout, alertable)
		switch st {
		case windows.STATUS_SUCCESS:
		case windows.STATUS_TIMEOUT, windows.STATUS_USER_APC:
			return 0, nil
		default:
			if p.closed.Load() {
				return 0, opError(op, ErrClosed, 0)
			}
			return 0, errnoError(op, st.Errno())
		}

		if filled := p.deliver(entries[:n], events); filled > 0 {
			return filled, nil
		}
		// Everything drained was stale; wait again for the remaining
		// time rather than report a spurious wake as readiness.
		if timeout == 0 {
			return 0, nil
		}
	}
}

// deliver translates drained completion entries into caller-visible
// events. Entries whose registration is gone are discarded; persistent
// registrations are re-armed before their event becomes visible, so a
// following Wait observes continued readiness without a Modify.
func (p *Poller) deliver(entries []win32.OverlappedEntry, out []EpollEvent) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, ent := range entries {
		if ent.CompletionKey == postKey {
			out[n] = EpollEvent{
				Data:       EpollData(ent.Overlapped),
				overlapped: ent.Overlapped,
				internal:   ent.Internal,
				Events:     eventsFromNative(ent.BytesTransferred),
			}
			n++
			continue
		}
		reg := p.table.lookupKey(ent.CompletionKey)
		if reg == nil {
			// Raced with a removal. The REMOVE completion may be what a
			// concurrent DeleteSocket is draining for.
			if ent.BytesTransferred&win32.SOCK_NOTIFY_EVENT_REMOVE != 0 {
				if done, ok := p.removals[ent.CompletionKey]; ok {
					close(done)
					delete(p.removals, ent.CompletionKey)
				}
			}
			continue
		}
		ev := eventsFromNative(ent.BytesTransferred)
		if ev == 0 {
			continue
		}

		switch rearmAfterDelivery(reg.mode, reg.state) {
		case rearmReissue:
			// Wait packets are strictly one-shot, so reissue only ever
			// applies to sockets.
			reg.state = stateFiring
			if err := p.armSocket("rearm socket", reg); err != nil {
				reg.state = stateDisarmed
				p.logger.Warn("rearm failed",
					zap.Uint64("socket", uint64(reg.handle)),
					zap.Error(err))
			}
		case rearmDisarm:
			reg.state = stateDisarmed
		case rearmNone:
			// Already disarmed; deliver without touching the arm state.
		}

		out[n] = EpollEvent{
			Data:       reg.data,
			overlapped: ent.Overlapped,
			internal:   ent.Internal,
			Events:     ev,
		}
		n++
	}
	return n
}

// ntRelativeTimeout converts d to the negative 100 ns interval NT waits
// use, rounding partial ticks up so a small nonzero timeout never
// collapses to a busy poll.
func ntRelativeTimeout(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	ticks := (int64(d) + 99) / 100
	return -ticks
}
