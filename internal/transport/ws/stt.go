package ws

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/app"
	"github.com/secondbrain/realtime/internal/backend"
	"github.com/secondbrain/realtime/internal/core"
	"github.com/secondbrain/realtime/internal/protocol"
	"github.com/secondbrain/realtime/internal/stt"
)

// STTController accepts streaming recognition connections. Text frames carry
// session control, binary frames carry raw little-endian int16 PCM.
type STTController struct {
	Registry     *app.Registry
	Engine       stt.Engine
	Backend      *backend.Client // nil disables transcript notes
	SampleRate   int
	ReadLimit    int64 // audio chunks can run to tens of megabytes
	WriteTimeout time.Duration
}

func (ctl *STTController) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "transport.stt").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := newWSConn(ws, ctl.WriteTimeout)
	sid := ctl.Registry.Register(conn)
	log.Info().Str("module", "transport.stt").Str("sid", string(sid)).Msg("new connection")

	_ = conn.TrySend(protocol.System("STT ready"))

	sess := app.NewSession(sid, conn, ctl.Engine, ctl.SampleRate)
	ctx, cancel := context.WithCancel(ctx)
	go conn.writePump(ctx)
	go ctl.readPump(ctx, cancel, sid, conn, sess)
}

func (ctl *STTController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, conn *wsConn, sess *app.Session) {
	defer func() {
		cancel()
		sess.Close()
		ctl.Registry.Unregister(sid)
		conn.Close()
		log.Info().Str("module", "transport.stt").Str("sid", string(sid)).Msg("connection closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			mt, data, err := conn.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "transport.stt").Str("sid", string(sid)).Msg("read error")
				return
			}
			if mt == websocket.BinaryMessage {
				sess.Feed(data)
				continue
			}
			if ctl.control(sid, conn, sess, data) {
				return
			}
		}
	}
}

// control handles one text frame. A true return ends the session loop.
func (ctl *STTController) control(sid core.SessionID, conn *wsConn, sess *app.Session, data core.Frame) (done bool) {
	in, err := protocol.Decode(data)
	if err != nil {
		_ = conn.TrySend(protocol.Error("malformed message"))
		return false
	}
	switch in.Type {
	case "start":
		sess.Start(in.SampleRate)
	case "stop":
		if sess.Stop() {
			ctl.saveTranscript(sid, sess)
			return true
		}
	default:
		_ = conn.TrySend(protocol.Error("Unknown type " + in.Type))
	}
	return false
}

// saveTranscript posts the finished session's transcript to the note backend
// when one is configured. Failures are logged, never surfaced to the client;
// the recognition session already completed.
func (ctl *STTController) saveTranscript(sid core.SessionID, sess *app.Session) {
	if ctl.Backend == nil {
		return
	}
	text := sess.Transcript()
	if text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	content := backend.Content{
		Title:       "Voice note " + time.Now().Format("2006-01-02 15:04"),
		Description: text,
		Type:        "note",
		Tags:        []string{"voice"},
	}
	if err := ctl.Backend.CreateContent(ctx, content); err != nil {
		log.Error().Err(err).Str("module", "transport.stt").Str("sid", string(sid)).Msg("save transcript")
		return
	}
	log.Info().Str("module", "transport.stt").Str("sid", string(sid)).Int("chars", len(text)).Msg("transcript saved")
}
