package core

import "crypto/rand"

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RoomTokenLen is the wire-visible width of a room token.
const RoomTokenLen = 16

// NewToken returns a random alphanumeric token of n characters.
func NewToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}

// NewRoomToken returns a fresh room token.
func NewRoomToken() RoomToken {
	return RoomToken(NewToken(RoomTokenLen))
}
