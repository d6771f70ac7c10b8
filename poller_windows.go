//go:build windows

package wepoll2

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/Berrysoft/wepoll2/internal/win32"
)

// Poller multiplexes socket readiness notifications and waitable-handle
// signals over a single I/O completion port.
//
// Control calls and Wait may run concurrently from any number of
// goroutines. Each completion is delivered to exactly one waiter. The
// table mutex is only held while registrations are touched, never while
// a Wait call is blocked in the kernel.
type Poller struct {
	port   *port
	logger *zap.Logger

	closed atomic.Bool

	mu       sync.Mutex
	table    *regTable
	removals map[uintptr]chan struct{} // keys with a pending native removal
}

// Option configures a Poller.
type Option func(*config)

type config struct {
	logger   *zap.Logger
	sizeHint int
}

// WithLogger routes control-plane diagnostics to l. The default discards
// them; the wait hot path never logs on success either way.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithSizeHint pre-sizes the registration table. Advisory only; any
// value is accepted.
func WithSizeHint(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.sizeHint = n
		}
	}
}

// NewPoller creates an empty poller backed by a fresh completion port.
func NewPoller(opts ...Option) (*Poller, error) {
	cfg := config{logger: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}
	pt, err := newPort()
	if err != nil {
		return nil, err
	}
	return &Poller{
		port:     pt,
		logger:   cfg.logger,
		table:    newRegTable(cfg.sizeHint),
		removals: make(map[uintptr]chan struct{}),
	}, nil
}

// Add registers handle with the poller, dispatching on whether it is a
// socket or a generic waitable object.
func (p *Poller) Add(handle windows.Handle, events uint32, data EpollData) error {
	if isSocket(handle) {
		return p.AddSocket(handle, events, data)
	}
	return p.AddWaitable(handle, events, data)
}

// Modify updates the registration for handle, dispatching like Add.
func (p *Poller) Modify(handle windows.Handle, events uint32, data EpollData) error {
	if isSocket(handle) {
		return p.ModifySocket(handle, events, data)
	}
	return p.ModifyWaitable(handle, events, data)
}

// Delete removes the registration for handle, dispatching like Add.
func (p *Poller) Delete(handle windows.Handle) error {
	if isSocket(handle) {
		return p.DeleteSocket(handle)
	}
	return p.DeleteWaitable(handle)
}

// isSocket probes handle with a socket-only call; anything failing with
// WSAENOTSOCK is treated as a waitable object.
func isSocket(h windows.Handle) bool {
	var typ int32
	l := int32(unsafe.Sizeof(typ))
	err := windows.Getsockopt(h, windows.SOL_SOCKET, win32.SO_TYPE, (*byte)(unsafe.Pointer(&typ)), &l)
	return !errors.Is(err, windows.WSAENOTSOCK)
}

// AddSocket registers a socket. Adding a socket that already has a
// registration here, or that is bound to another completion port, fails
// with ErrAlreadyAssociated.
func (p *Poller) AddSocket(s windows.Handle, events uint32, data EpollData) error {
	const op = "add socket"
	if err := checkEvents(op, events); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return opError(op, ErrClosed, 0)
	}
	if p.table.lookup(s) != nil {
		return opError(op, ErrAlreadyAssociated, 0)
	}
	reg := &registration{
		handle: s,
		kind:   kindSocket,
		events: events,
		data:   data,
		mode:   modeForEvents(events),
		state:  stateArmed,
	}
	p.table.insert(reg)
	if err := p.armSocket(op, reg); err != nil {
		p.table.remove(reg)
		return err
	}
	p.logger.Debug("socket registered",
		zap.Uint64("socket", uint64(s)),
		zap.Uint32("events", events))
	return nil
}

// ModifySocket replaces the interest mask and user data of an existing
// registration and re-arms it, which also revives a one-shot entry that
// has already fired. A native failure leaves the table untouched.
func (p *Poller) ModifySocket(s windows.Handle, events uint32, data EpollData) error {
	const op = "modify socket"
	if err := checkEvents(op, events); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return opError(op, ErrClosed, 0)
	}
	reg := p.table.lookup(s)
	if reg == nil || reg.kind != kindSocket {
		return opError(op, ErrInvalidHandle, 0)
	}
	prevEvents, prevData, prevMode, prevState := reg.events, reg.data, reg.mode, reg.state
	reg.events, reg.data, reg.mode = events, data, modeForEvents(events)
	if err := p.armSocket(op, reg); err != nil {
		reg.events, reg.data, reg.mode, reg.state = prevEvents, prevData, prevMode, prevState
		return err
	}
	return nil
}

// DeleteSocket removes a socket registration and waits until the native
// layer confirms the removal, so the socket can be registered again
// immediately afterwards.
func (p *Poller) DeleteSocket(s windows.Handle) error {
	const op = "delete socket"
	p.mu.Lock()
	if p.closed.Load() {
		p.mu.Unlock()
		return opError(op, ErrClosed, 0)
	}
	reg := p.table.lookup(s)
	if reg == nil || reg.kind != kindSocket {
		p.mu.Unlock()
		return opError(op, ErrInvalidHandle, 0)
	}
	if err := p.issueSocketOp(op, reg, win32.SOCK_NOTIFY_OP_REMOVE, win32.SOCK_NOTIFY_REGISTER_EVENT_NONE, triggerFlags(0)); err != nil {
		p.mu.Unlock()
		return err
	}
	done := make(chan struct{})
	p.removals[reg.key] = done
	p.table.remove(reg)
	reg.state = stateDisarmed
	key := reg.key
	p.mu.Unlock()

	if err := p.awaitRemoval(op, key, done); err != nil {
		return err
	}
	p.logger.Debug("socket removed", zap.Uint64("socket", uint64(s)))
	return nil
}

// armSocket issues or refreshes the native registration for reg. The
// completion key carries the table key so the wait engine can correlate
// completions back to the entry. An empty filter disables delivery
// instead of enabling nothing.
func (p *Poller) armSocket(op string, reg *registration) error {
	operation := uint8(win32.SOCK_NOTIFY_OP_ENABLE)
	filter := registerFilter(reg.events)
	if filter == win32.SOCK_NOTIFY_REGISTER_EVENT_NONE {
		operation = win32.SOCK_NOTIFY_OP_DISABLE
	}
	if err := p.issueSocketOp(op, reg, operation, filter, triggerFlags(reg.events)); err != nil {
		return err
	}
	reg.state = stateArmed
	return nil
}

func (p *Poller) issueSocketOp(op string, reg *registration, operation uint8, filter uint16, trigger uint8) error {
	regs := []win32.SockNotifyRegistration{{
		Socket:        reg.handle,
		CompletionKey: reg.key,
		EventFilter:   filter,
		Operation:     operation,
		TriggerFlags:  trigger,
	}}
	if e := win32.ProcessSocketNotifications(p.port.handle, regs, 0, nil, nil); e != 0 {
		return errnoError(op, e)
	}
	if res := regs[0].RegistrationResult; res != uint32(windows.ERROR_SUCCESS) {
		return errnoError(op, syscall.Errno(res))
	}
	return nil
}

// awaitRemoval drains the port until the REMOVE completion for key shows
// up, either dequeued here or by a concurrent Wait call. Entries for
// other registrations are reposted untouched; stale readiness for the
// removed key is dropped.
func (p *Poller) awaitRemoval(op string, key uintptr, done chan struct{}) error {
	entries := make([]win32.OverlappedEntry, 1)
	for {
		select {
		case <-done:
			return nil
		default:
		}
		var received uint32
		e := win32.ProcessSocketNotifications(p.port.handle, nil, 0, entries, &received)
		switch e {
		case 0:
			if received == 0 {
				continue
			}
			ent := entries[0]
			if ent.CompletionKey == key {
				if ent.BytesTransferred&win32.SOCK_NOTIFY_EVENT_REMOVE != 0 {
					p.mu.Lock()
					delete(p.removals, key)
					p.mu.Unlock()
					return nil
				}
				continue
			}
			if err := p.port.post(ent.BytesTransferred, ent.CompletionKey, ent.Overlapped); err != nil {
				return osError(op, err)
			}
		case syscall.Errno(windows.WAIT_TIMEOUT):
			runtime.Gosched()
		default:
			return errnoError(op, e)
		}
	}
}

// AddWaitable registers a generic waitable handle through a wait
// completion packet. The packet mechanism is one-shot, so the
// registration behaves as one-shot whatever trigger bits the mask
// carries; observing another signal requires ModifyWaitable.
func (p *Poller) AddWaitable(h windows.Handle, events uint32, data EpollData) error {
	const op = "add waitable"
	if err := checkEvents(op, events); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return opError(op, ErrClosed, 0)
	}
	if p.table.lookup(h) != nil {
		return opError(op, ErrAlreadyAssociated, 0)
	}
	pkt, err := newWaitPacket()
	if err != nil {
		return err
	}
	reg := &registration{
		handle: h,
		kind:   kindWaitable,
		events: events,
		data:   data,
		mode:   triggerOneshot,
		state:  stateArmed,
		packet: pkt,
	}
	p.table.insert(reg)
	if err := pkt.associate(p.port.handle, h, reg.key, uintptr(eventsToNative(events))); err != nil {
		p.table.remove(reg)
		pkt.close()
		return err
	}
	p.logger.Debug("waitable registered",
		zap.Uint64("handle", uint64(h)),
		zap.Uint32("events", events))
	return nil
}

// ModifyWaitable re-arms a waitable registration with a new mask and
// user data. If the old packet already fired it cannot be reused and is
// replaced.
func (p *Poller) ModifyWaitable(h windows.Handle, events uint32, data EpollData) error {
	const op = "modify waitable"
	if err := checkEvents(op, events); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return opError(op, ErrClosed, 0)
	}
	reg := p.table.lookup(h)
	if reg == nil || reg.kind != kindWaitable {
		return opError(op, ErrInvalidHandle, 0)
	}
	reusable, err := reg.packet.cancel()
	if err != nil {
		return err
	}
	if !reusable {
		pkt, err := newWaitPacket()
		if err != nil {
			return err
		}
		reg.packet.close()
		reg.packet = pkt
	}
	prevEvents, prevData := reg.events, reg.data
	reg.events, reg.data = events, data
	if err := reg.packet.associate(p.port.handle, h, reg.key, uintptr(eventsToNative(events))); err != nil {
		reg.events, reg.data = prevEvents, prevData
		reg.state = stateDisarmed
		return err
	}
	reg.state = stateArmed
	return nil
}

// DeleteWaitable cancels the outstanding wait packet and removes the
// registration. A packet that fired but was not yet delivered leaves a
// completion in the port; its key no longer resolves, so the wait engine
// discards it instead of delivering against the removed entry.
func (p *Poller) DeleteWaitable(h windows.Handle) error {
	const op = "delete waitable"
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return opError(op, ErrClosed, 0)
	}
	reg := p.table.lookup(h)
	if reg == nil || reg.kind != kindWaitable {
		return opError(op, ErrInvalidHandle, 0)
	}
	if _, err := reg.packet.cancel(); err != nil {
		return err
	}
	p.table.remove(reg)
	reg.state = stateDisarmed
	reg.packet.close()
	p.logger.Debug("waitable removed", zap.Uint64("handle", uint64(h)))
	return nil
}

// Post queues a user-generated wakeup carrying the given readiness flags
// and data. It is delivered to exactly one Wait call; no registration is
// involved. The data payload rides in the entry's overlapped slot, so on
// 32-bit builds only the low pointer-width bits survive.
func (p *Poller) Post(events uint32, data EpollData) error {
	const op = "post"
	if err := checkEvents(op, events); err != nil {
		return err
	}
	if p.closed.Load() {
		return opError(op, ErrClosed, 0)
	}
	if err := p.port.post(eventsToNative(events), postKey, uintptr(data)); err != nil {
		return osError(op, err)
	}
	return nil
}

// Close tears down every registration, then releases the completion
// port. Goroutines blocked in Wait return ErrClosed. A second Close
// reports ErrInvalidHandle.
func (p *Poller) Close() error {
	const op = "close"
	if !p.closed.CompareAndSwap(false, true) {
		return opError(op, ErrInvalidHandle, 0)
	}
	p.mu.Lock()
	for _, reg := range p.table.all() {
		switch reg.kind {
		case kindSocket:
			// Best effort: the REMOVE completion drowns with the port.
			_ = p.issueSocketOp(op, reg, win32.SOCK_NOTIFY_OP_REMOVE, win32.SOCK_NOTIFY_REGISTER_EVENT_NONE, triggerFlags(0))
		case kindWaitable:
			_, _ = reg.packet.cancel()
			reg.packet.close()
		}
		p.table.remove(reg)
		reg.state = stateDisarmed
	}
	p.mu.Unlock()
	err := p.port.close()
	p.logger.Debug("poller closed")
	if err != nil {
		return osError(op, err)
	}
	return nil
}
