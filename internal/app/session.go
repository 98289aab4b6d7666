package app

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/core"
	"github.com/secondbrain/realtime/internal/protocol"
	"github.com/secondbrain/realtime/internal/stt"
)

// SessionState is the recognition lifecycle of one connection.
type SessionState uint8

const (
	SessionIdle SessionState = iota
	SessionActive
	SessionEnded
)

// Session is the per-connection recognition state machine. It is driven by
// the connection's read loop, so calls arrive strictly sequentially; no
// internal locking is needed.
//
// Lifecycle: idle -> active on start, active -> ended on stop. At most one
// recognizer is live at a time; a second start replaces the first.
type Session struct {
	sid         core.SessionID
	conn        core.SignalConn
	engine      stt.Engine
	defaultRate int

	state  SessionState
	rec    stt.Recognizer
	rate   int
	finals []string
}

func NewSession(sid core.SessionID, conn core.SignalConn, engine stt.Engine, defaultRate int) *Session {
	return &Session{sid: sid, conn: conn, engine: engine, defaultRate: defaultRate}
}

func (s *Session) State() SessionState { return s.state }

// Start binds a fresh recognizer at the requested sample rate (the default
// applies when the client sends none) and confirms with the effective rate.
// Any previously active recognizer is closed first, never leaked.
func (s *Session) Start(sampleRate int) {
	if sampleRate <= 0 {
		sampleRate = s.defaultRate
	}
	if s.rec != nil {
		_ = s.rec.Close()
		s.rec = nil
	}
	rec, err := s.engine.Bind(sampleRate)
	if err != nil {
		s.state = SessionIdle
		log.Error().Str("module", "app.session").Str("sid", string(s.sid)).Err(err).Msg("recognizer bind failed")
		s.send(protocol.Error("Internal error: " + err.Error()))
		return
	}
	s.rec = rec
	s.rate = sampleRate
	s.state = SessionActive
	s.send(protocol.Started(sampleRate))
	log.Info().Str("module", "app.session").Str("sid", string(s.sid)).Int("sample_rate", sampleRate).Msg("session started")
}

// Feed pushes one audio chunk through the recognizer and emits a partial or
// final event when the recognizer produced text. Audio arriving before start
// is discarded; late chunks from a client are expected, not an error.
func (s *Session) Feed(pcm []byte) {
	if s.state != SessionActive {
		return
	}
	res, err := s.rec.Feed(pcm)
	if err != nil {
		log.Error().Str("module", "app.session").Str("sid", string(s.sid)).Err(err).Msg("recognizer feed failed")
		s.send(protocol.Error("Internal error: " + err.Error()))
		return
	}
	if res.Text == "" {
		return
	}
	if res.Final {
		s.finals = append(s.finals, res.Text)
		s.send(protocol.Final(res.Text))
	} else {
		s.send(protocol.Partial(res.Text))
	}
}

// Stop finalizes an active session: trailing speech is flushed as a last
// final event, then ended is emitted and the session is over. The returned
// flag tells the read loop to terminate. Stopping with no active session
// only acknowledges with ended; the connection stays usable for a new start.
func (s *Session) Stop() (done bool) {
	if s.state != SessionActive {
		s.send(protocol.Ended())
		return false
	}
	text, err := s.rec.Finalize()
	if err != nil {
		log.Error().Str("module", "app.session").Str("sid", string(s.sid)).Err(err).Msg("recognizer finalize failed")
	}
	if text != "" {
		s.finals = append(s.finals, text)
		s.send(protocol.Final(text))
	}
	_ = s.rec.Close()
	s.rec = nil
	s.state = SessionEnded
	s.send(protocol.Ended())
	log.Info().Str("module", "app.session").Str("sid", string(s.sid)).Msg("session ended")
	return true
}

// Close releases the recognizer without emitting events. The read loop calls
// it on its exit path, covering abrupt disconnects mid-session.
func (s *Session) Close() {
	if s.rec != nil {
		_ = s.rec.Close()
		s.rec = nil
	}
}

// Transcript joins every final utterance of the session.
func (s *Session) Transcript() string {
	return strings.Join(s.finals, " ")
}

func (s *Session) send(frame core.Frame) {
	if err := s.conn.TrySend(frame); err != nil {
		log.Debug().Str("module", "app.session").Str("sid", string(s.sid)).Err(err).Msg("event dropped")
	}
}
