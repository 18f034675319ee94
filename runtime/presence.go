package runtime

import (
	"agora/contract"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Presence is the in-process PresenceRegistry.
// An entry exists only while its identity holds at least one transport.
type Presence struct {
	mu      sync.RWMutex
	entries map[string]map[string]contract.Transport // identity -> transport id -> transport
}

func NewPresence() *Presence {
	return &Presence{entries: make(map[string]map[string]contract.Transport)}
}

// Register returns true when t is the first transport of identity.
func (p *Presence) Register(identity string, t contract.Transport) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	transports, ok := p.entries[identity]
	if !ok {
		transports = make(map[string]contract.Transport)
		p.entries[identity] = transports
	}
	transports[t.ID()] = t
	return !ok
}

// Deregister returns true when t was the last transport of identity.
// Unknown transports are ignored.
func (p *Presence) Deregister(identity string, t contract.Transport) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	transports, ok := p.entries[identity]
	if !ok {
		return false
	}
	if _, held := transports[t.ID()]; !held {
		return false
	}
	delete(transports, t.ID())
	if len(transports) > 0 {
		return false
	}
	delete(p.entries, identity)
	return true
}

func (p *Presence) IsOnline(identity string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.entries[identity]
	return ok
}

// Online lists online identities in lexical order.
func (p *Presence) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	online := lo.Keys(p.entries)
	slices.Sort(online)
	return online
}

// Connections counts live transports across every identity.
func (p *Presence) Connections() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return lo.SumBy(lo.Values(p.entries), func(t map[string]contract.Transport) int { return len(t) })
}
