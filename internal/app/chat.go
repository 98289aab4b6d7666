package app

import (
	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/core"
	"github.com/secondbrain/realtime/internal/protocol"
)

// Chat routes parsed chat envelopes against the registry and room directory.
// Replies go back through the sender's registered connection; chat messages
// fan out to the sender's current room.
type Chat struct {
	Registry *Registry
	Rooms    *Directory
}

func NewChat(reg *Registry, rooms *Directory) *Chat {
	return &Chat{Registry: reg, Rooms: rooms}
}

// CreateRoom mints a room and replies with its token. Creating a room does
// not join it; the creator must join like everyone else.
func (c *Chat) CreateRoom(sid core.SessionID) {
	token := c.Rooms.Create()
	c.reply(sid, protocol.RoomCreated(token))
}

// Join points the sender at an existing room. An unknown token is a
// recoverable error; the connection stays usable and its room is unchanged.
// Joining another room later simply switches membership, no leave required.
func (c *Chat) Join(sid core.SessionID, room core.RoomToken) {
	if !c.Rooms.Exists(room) {
		c.reply(sid, protocol.Error("Room not found! Please create a room first."))
		return
	}
	if !c.Registry.SetRoom(sid, room) {
		log.Warn().Str("module", "app.chat").Str("sid", string(sid)).Msg("join from unregistered session")
		return
	}
	c.reply(sid, protocol.Joined(room))
}

// Say broadcasts a chat message to every member of the sender's room,
// including the sender (echo-back lets clients confirm delivery order).
// A sender with no room is silently dropped, matching the wire protocol.
func (c *Chat) Say(sid core.SessionID, message, clientID string) {
	room, ok := c.Registry.RoomOf(sid)
	if !ok {
		log.Debug().Str("module", "app.chat").Str("sid", string(sid)).Msg("chat without room, dropped")
		return
	}
	frame := protocol.Chat(message, clientID)
	members := c.Registry.MembersOf(room)
	dropped := 0
	for _, m := range members {
		// Each write is independent; one slow peer must not stall the rest.
		if err := m.Conn.TrySend(frame); err != nil {
			dropped++
		}
	}
	log.Debug().Str("module", "app.chat").Str("room", string(room)).
		Int("members", len(members)).Int("dropped", dropped).Msg("broadcast")
}

// Disconnect evicts the session from the registry. Safe to call more than
// once; the registry treats a missing entry as a no-op.
func (c *Chat) Disconnect(sid core.SessionID) {
	c.Registry.Unregister(sid)
}

func (c *Chat) reply(sid core.SessionID, frame core.Frame) {
	conn, ok := c.Registry.Conn(sid)
	if !ok {
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Debug().Str("module", "app.chat").Str("sid", string(sid)).Err(err).Msg("reply dropped")
	}
}
