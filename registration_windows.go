//go:build windows

package wepoll2

import "golang.org/x/sys/windows"

// identityKind tags what a registration refers to.
type identityKind uint8

const (
	kindSocket identityKind = iota
	kindWaitable
)

// armState tracks where a registration sits in its delivery cycle.
type armState uint8

const (
	stateArmed armState = iota
	stateFiring
	stateDisarmed
)

// registration is one registration table entry. All fields are guarded
// by the owning Poller's mutex.
type registration struct {
	handle windows.Handle
	kind   identityKind
	key    uintptr // completion key correlating native entries back here
	events uint32
	data   EpollData
	mode   triggerMode
	state  armState
	packet *waitPacket // waitables only
}

// rearmAction is what the wait engine must do right after delivering an
// event for a registration.
type rearmAction uint8

const (
	rearmNone rearmAction = iota
	rearmReissue
	rearmDisarm
)

// rearmAfterDelivery decides the post-delivery step from the trigger
// mode and the arm state alone.
func rearmAfterDelivery(mode triggerMode, state armState) rearmAction {
	if state == stateDisarmed {
		return rearmNone
	}
	if mode == triggerOneshot {
		return rearmDisarm
	}
	return rearmReissue
}

// regTable maps registered identities and completion keys to their
// registration records. Keys come from a monotonic counter and are never
// reused, so a stale in-flight completion can never alias a newer
// registration. Key 0 is reserved for user-posted wakeups.
type regTable struct {
	nextKey  uintptr
	byHandle map[windows.Handle]*registration
	byKey    map[uintptr]*registration
}

func newRegTable(sizeHint int) *regTable {
	return &regTable{
		nextKey:  postKey + 1,
		byHandle: make(map[windows.Handle]*registration, sizeHint),
		byKey:    make(map[uintptr]*registration, sizeHint),
	}
}

func (t *regTable) lookup(h windows.Handle) *registration {
	return t.byHandle[h]
}

func (t *regTable) lookupKey(k uintptr) *registration {
	return t.byKey[k]
}

func (t *regTable) insert(reg *registration) {
	reg.key = t.nextKey
	t.nextKey++
	t.byHandle[reg.handle] = reg
	t.byKey[reg.key] = reg
}

func (t *regTable) remove(reg *registration) {
	delete(t.byHandle, reg.handle)
	delete(t.byKey, reg.key)
}

func (t *regTable) all() []*registration {
	regs := make([]*registration, 0, len(t.byHandle))
	for _, reg := range t.byHandle {
		regs = append(regs, reg)
	}
	return regs
}
