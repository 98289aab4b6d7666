package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/core"
)

// Directory is the set of valid room tokens. Rooms live for the process
// lifetime; there is no expiry.
type Directory struct {
	mu    sync.RWMutex
	rooms map[core.RoomToken]struct{}
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[core.RoomToken]struct{})}
}

// Create mints a fresh room token and adds it to the known set. The token
// space is large enough that collisions are not checked.
func (d *Directory) Create() core.RoomToken {
	token := core.NewRoomToken()
	d.mu.Lock()
	d.rooms[token] = struct{}{}
	d.mu.Unlock()
	log.Info().Str("module", "app.rooms").Str("room", string(token)).Msg("created room")
	return token
}

// Exists reports whether the token names a known room.
func (d *Directory) Exists(token core.RoomToken) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[token]
	return ok
}

// Len reports the number of known rooms.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
