package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/app"
	"github.com/secondbrain/realtime/internal/core"
	"github.com/secondbrain/realtime/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatController accepts chat connections and drives their read loops.
type ChatController struct {
	Orch         *app.Chat
	WriteTimeout time.Duration
}

// Handle upgrades the request, registers the connection, greets the client
// and hands off to the pumps. The gin handler returns immediately; the
// connection lives on in its goroutines.
func (ctl *ChatController) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "transport.chat").Msg("ws upgrade")
		return
	}

	conn := newWSConn(ws, ctl.WriteTimeout)
	sid := ctl.Orch.Registry.Register(conn)
	log.Info().Str("module", "transport.chat").Str("sid", string(sid)).Msg("new connection")

	_ = conn.TrySend(protocol.System("Connected to chat server"))

	ctx, cancel := context.WithCancel(ctx)
	go conn.writePump(ctx)
	go ctl.readPump(ctx, cancel, sid, conn)
}

// readPump processes frames strictly sequentially, which is what gives each
// sender its in-order delivery. The deferred cleanup runs exactly once on
// every exit path, graceful or not.
func (ctl *ChatController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, conn *wsConn) {
	defer func() {
		cancel()
		ctl.Orch.Disconnect(sid)
		conn.Close()
		log.Info().Str("module", "transport.chat").Str("sid", string(sid)).Msg("connection closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := conn.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "transport.chat").Str("sid", string(sid)).Msg("read error")
				return
			}
			ctl.dispatch(sid, conn, data)
		}
	}
}

func (ctl *ChatController) dispatch(sid core.SessionID, conn *wsConn, data core.Frame) {
	in, err := protocol.Decode(data)
	if err != nil {
		_ = conn.TrySend(protocol.Error("malformed message"))
		return
	}
	switch in.Type {
	case "create":
		ctl.Orch.CreateRoom(sid)
	case "join":
		ctl.Orch.Join(sid, core.RoomToken(in.Payload.Room))
	case "chat":
		if in.Payload.Message == "" || in.Payload.ClientID == "" {
			_ = conn.TrySend(protocol.Error("chat requires payload.message and payload.clientId"))
			return
		}
		ctl.Orch.Say(sid, in.Payload.Message, in.Payload.ClientID)
	default:
		_ = conn.TrySend(protocol.Error("unknown type " + in.Type))
	}
}
