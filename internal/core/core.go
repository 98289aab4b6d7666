package core

// Frame is a raw wire payload, either an encoded envelope or binary audio.
type Frame []byte

// SessionID identifies one live connection, assigned at accept time.
type SessionID string

// RoomToken identifies a chat room.
type RoomToken string

// SignalConn abstracts the outbound side of a connection.
// Owned by the transport adapter; the adapter must Close() it.
type SignalConn interface {
	TrySend(Frame) error
	Close()
}
