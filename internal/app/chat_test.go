package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/secondbrain/realtime/internal/core"
)

type chatFixture struct {
	chat *Chat
}

func newChatFixture() *chatFixture {
	reg := NewRegistry()
	return &chatFixture{chat: NewChat(reg, NewDirectory())}
}

func (f *chatFixture) connect() (core.SessionID, *fakeConn) {
	conn := &fakeConn{}
	sid := f.chat.Registry.Register(conn)
	return sid, conn
}

func TestCreateRoomRepliesToSenderOnly(t *testing.T) {
	f := newChatFixture()
	creator, creatorConn := f.connect()
	_, otherConn := f.connect()

	f.chat.CreateRoom(creator)

	envs := creatorConn.envelopes(t)
	require.Len(t, envs, 1)
	require.Equal(t, "room_created", envs[0]["type"])
	hash := envs[0]["hash"].(string)
	require.Len(t, hash, core.RoomTokenLen)
	require.True(t, f.chat.Rooms.Exists(core.RoomToken(hash)))

	require.Empty(t, otherConn.envelopes(t), "create must not touch other connections")
}

func TestCreateDoesNotJoin(t *testing.T) {
	f := newChatFixture()
	creator, creatorConn := f.connect()

	f.chat.CreateRoom(creator)
	_, ok := f.chat.Registry.RoomOf(creator)
	require.False(t, ok, "creating a room must not imply membership")

	// a chat from the creator routes nowhere, not even back
	f.chat.Say(creator, "hi", "c1")
	require.Equal(t, []string{"room_created"}, creatorConn.types(t))
}

func TestJoinUnknownRoom(t *testing.T) {
	f := newChatFixture()
	sid, conn := f.connect()

	f.chat.Join(sid, "does-not-exist")

	types := conn.types(t)
	require.Equal(t, []string{"error"}, types, "exactly one error envelope")
	_, ok := f.chat.Registry.RoomOf(sid)
	require.False(t, ok, "room must stay unset")

	// the connection stays usable: a later valid join succeeds
	room := f.chat.Rooms.Create()
	f.chat.Join(sid, room)
	require.Equal(t, []string{"error", "joined"}, conn.types(t))
}

func TestJoinConfirmsRoom(t *testing.T) {
	f := newChatFixture()
	sid, conn := f.connect()
	room := f.chat.Rooms.Create()

	f.chat.Join(sid, room)

	envs := conn.envelopes(t)
	require.Len(t, envs, 1)
	require.Equal(t, "joined", envs[0]["type"])
	require.Equal(t, string(room), envs[0]["room"])

	got, ok := f.chat.Registry.RoomOf(sid)
	require.True(t, ok)
	require.Equal(t, room, got)
}

func TestChatBroadcastsToRoomIncludingSender(t *testing.T) {
	f := newChatFixture()
	room := f.chat.Rooms.Create()
	other := f.chat.Rooms.Create()

	a, aConn := f.connect()
	b, bConn := f.connect()
	c, cConn := f.connect()
	f.chat.Join(a, room)
	f.chat.Join(b, room)
	f.chat.Join(c, other)

	f.chat.Say(a, "hello", "client-a")

	for _, conn := range []*fakeConn{aConn, bConn} {
		envs := conn.envelopes(t)
		last := envs[len(envs)-1]
		require.Equal(t, "chat", last["type"])
		payload := last["payload"].(map[string]any)
		require.Equal(t, "hello", payload["message"])
		require.Equal(t, "client-a", payload["clientId"])
	}
	require.Equal(t, []string{"joined"}, cConn.types(t), "other rooms must not receive the message")
}

func TestChatWithoutRoomIsSilentlyDropped(t *testing.T) {
	f := newChatFixture()
	sid, conn := f.connect()

	f.chat.Say(sid, "into the void", "c1")

	require.Empty(t, conn.envelopes(t), "no echo and no error for roomless chat")
}

func TestLastJoinWinsRouting(t *testing.T) {
	f := newChatFixture()
	first := f.chat.Rooms.Create()
	second := f.chat.Rooms.Create()

	mover, moverConn := f.connect()
	stayer, stayerConn := f.connect()
	f.chat.Join(stayer, first)
	f.chat.Join(mover, first)
	f.chat.Join(mover, second)

	// stayer chats in the first room; mover must no longer hear it
	f.chat.Say(stayer, "anyone here?", "stayer")

	require.Equal(t, []string{"joined", "joined"}, moverConn.types(t))
	require.Equal(t, []string{"joined", "chat"}, stayerConn.types(t))

	// mover chats in the second room; only mover hears the echo
	f.chat.Say(mover, "moved on", "mover")
	require.Equal(t, []string{"joined", "joined", "chat"}, moverConn.types(t))
}

func TestDisconnectedConnectionReceivesNothing(t *testing.T) {
	f := newChatFixture()
	room := f.chat.Rooms.Create()

	leaver, leaverConn := f.connect()
	stayer, _ := f.connect()
	f.chat.Join(leaver, room)
	f.chat.Join(stayer, room)

	f.chat.Disconnect(leaver)
	framesBefore := len(leaverConn.envelopes(t))

	f.chat.Say(stayer, "you still there?", "stayer")

	require.Len(t, leaverConn.envelopes(t), framesBefore, "evicted member must not receive broadcasts")
	require.Len(t, f.chat.Registry.MembersOf(room), 1)
}

func TestSlowPeerDoesNotBlockBroadcast(t *testing.T) {
	f := newChatFixture()
	room := f.chat.Rooms.Create()

	slowConn := &fakeConn{}
	slow := f.chat.Registry.Register(slowConn)
	sender, senderConn := f.connect()
	f.chat.Join(slow, room)
	f.chat.Join(sender, room)

	slowConn.sendErr = errors.New("backpressure")

	f.chat.Say(sender, "still flowing", "sender")

	require.Equal(t, []string{"joined", "chat"}, senderConn.types(t), "healthy peers must still be delivered")
}
