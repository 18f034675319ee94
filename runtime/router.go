package runtime

import (
	"agora/contract"
	"agora/domain/event"
	"agora/errors"
	"context"
	"log/slog"
	"sync"
)

type Set map[string]struct{}

// Router is the RoomRouter. Local members are reached directly, the cluster
// adapter carries the frame to members held by other processes.
type Router struct {
	mu          sync.RWMutex
	log         *slog.Logger
	cluster     contract.ClusterAdapter
	rooms       map[string]map[string]contract.Transport // room -> transport id -> transport
	memberships map[string]Set                           // transport id -> rooms
}

func NewRouter(log *slog.Logger, cluster contract.ClusterAdapter) *Router {
	return &Router{
		log:         log,
		cluster:     cluster,
		rooms:       make(map[string]map[string]contract.Transport),
		memberships: make(map[string]Set),
	}
}

func (r *Router) Join(room string, t contract.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]contract.Transport)
		r.rooms[room] = members
	}
	members[t.ID()] = t

	if _, ok := r.memberships[t.ID()]; !ok {
		r.memberships[t.ID()] = make(Set)
	}
	r.memberships[t.ID()][room] = struct{}{}
}

func (r *Router) Leave(room string, t contract.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, t.ID())
}

// LeaveAll removes t from every room it joined.
func (r *Router) LeaveAll(t contract.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.memberships[t.ID()] {
		r.leaveLocked(room, t.ID())
	}
	delete(r.memberships, t.ID())
}

func (r *Router) IsMember(room string, t contract.Transport) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][t.ID()]
	return ok
}

// Publish encodes evt once, delivers it to local members and hands it to the cluster.
// Local delivery happens even when the broker is unreachable.
func (r *Router) Publish(ctx context.Context, room string, evt event.Outbound, opts ...contract.PublishOption) error {
	var options contract.PublishOptions
	for _, opt := range opts {
		opt(&options)
	}
	frame, err := event.Encode(evt)
	if err != nil {
		return err
	}
	r.Deliver(room, frame, options.ExceptIdentity)

	if r.cluster == nil {
		return nil
	}
	err = r.cluster.Publish(ctx, contract.Envelope{
		Room:           room,
		ExceptIdentity: options.ExceptIdentity,
		Frame:          frame,
	})
	if err != nil {
		return errors.Transient(err)
	}
	return nil
}

// Deliver writes an encoded frame to the local members of room and returns how many accepted it.
// Transports of exceptIdentity are skipped.
func (r *Router) Deliver(room string, frame []byte, exceptIdentity string) int {
	r.mu.RLock()
	members := make([]contract.Transport, 0, len(r.rooms[room]))
	for _, t := range r.rooms[room] {
		if exceptIdentity != "" && t.Identity() == exceptIdentity {
			continue
		}
		members = append(members, t)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, t := range members {
		if err := t.Send(frame); err != nil {
			r.log.Debug("Frame dropped", "room", room, "transport", t.ID(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Rooms counts rooms with at least one local member.
func (r *Router) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Router) leaveLocked(room, transportID string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, transportID)
		// No empty room entry is kept around
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.memberships[transportID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.memberships, transportID)
		}
	}
}
