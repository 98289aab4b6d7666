package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/core"
)

type regEntry struct {
	Conn core.SignalConn
	Room core.RoomToken
}

// Registry tracks every live connection and its room assignment.
// State is process-lifetime only; a restart begins empty.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.SessionID]*regEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.SessionID]*regEntry)}
}

// Register stores the connection under a fresh session id and returns it.
// The entry is visible to lookups as soon as Register returns.
func (r *Registry) Register(conn core.SignalConn) core.SessionID {
	sid := core.SessionID(uuid.NewString())
	r.mu.Lock()
	r.conns[sid] = &regEntry{Conn: conn}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("registered connection")
	return sid
}

// Unregister removes the connection's entry. Unregistering an absent session
// is a no-op.
func (r *Registry) Unregister(sid core.SessionID) {
	r.mu.Lock()
	_, ok := r.conns[sid]
	delete(r.conns, sid)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unregistered connection")
	}
}

// Conn returns the transport endpoint for a session.
func (r *Registry) Conn(sid core.SessionID) (core.SignalConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[sid]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// RoomOf returns the session's current room, if one is set.
func (r *Registry) RoomOf(sid core.SessionID) (core.RoomToken, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[sid]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

// SetRoom points the session at a room. Reports false for unknown sessions.
func (r *Registry) SetRoom(sid core.SessionID, room core.RoomToken) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[sid]
	if !ok {
		return false
	}
	e.Room = room
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("updated room")
	return true
}

// MemberSnap is one element of a membership snapshot.
type MemberSnap struct {
	SID  core.SessionID
	Conn core.SignalConn
}

// MembersOf snapshots the connections currently assigned to a room. The
// snapshot is taken under the registry lock so a concurrent join or
// disconnect cannot corrupt it; order is unspecified.
func (r *Registry) MembersOf(room core.RoomToken) []MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberSnap, 0, len(r.conns))
	for sid, e := range r.conns {
		if e.Room == room {
			out = append(out, MemberSnap{SID: sid, Conn: e.Conn})
		}
	}
	return out
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
