package runtime

import (
	"agora/contract"
	"agora/domain/event"
	"sort"
	"sync"
)

type loungeEntry struct {
	muted      bool
	transports map[string]struct{}
}

// Lounge keeps the in-process lounge membership with a mute flag per member.
// An identity stays listed while at least one of its transports is in the lounge.
type Lounge struct {
	mu      sync.Mutex
	members map[string]*loungeEntry // identity -> entry
}

func NewLounge() *Lounge {
	return &Lounge{members: make(map[string]*loungeEntry)}
}

// Join adds t under its identity, unmuted for a new member.
// Another device joining keeps the current mute flag.
func (l *Lounge) Join(t contract.Transport) []event.LoungeMember {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.members[t.Identity()]
	if !ok {
		entry = &loungeEntry{transports: make(map[string]struct{})}
		l.members[t.Identity()] = entry
	}
	entry.transports[t.ID()] = struct{}{}
	return l.snapshotLocked()
}

// Leave removes t and reports true when it was the last lounge transport of its identity.
// A transport that never joined is ignored.
func (l *Lounge) Leave(t contract.Transport) ([]event.LoungeMember, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.members[t.Identity()]
	if !ok {
		return l.snapshotLocked(), false
	}
	if _, joined := entry.transports[t.ID()]; !joined {
		return l.snapshotLocked(), false
	}
	delete(entry.transports, t.ID())
	if len(entry.transports) > 0 {
		return l.snapshotLocked(), false
	}
	delete(l.members, t.Identity())
	return l.snapshotLocked(), true
}

// ToggleMute reports false when identity is not in the lounge.
func (l *Lounge) ToggleMute(identity string) ([]event.LoungeMember, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.members[identity]
	if !ok {
		return l.snapshotLocked(), false
	}
	entry.muted = !entry.muted
	return l.snapshotLocked(), true
}

func (l *Lounge) Members() []event.LoungeMember {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Lounge) snapshotLocked() []event.LoungeMember {
	members := make([]event.LoungeMember, 0, len(l.members))
	for id, entry := range l.members {
		members = append(members, event.LoungeMember{UserID: id, Muted: entry.muted})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members
}
