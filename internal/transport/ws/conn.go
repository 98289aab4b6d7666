package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/core"
)

// ErrBackpressure is returned when a peer's send buffer is full. The frame
// is dropped for that peer only.
var ErrBackpressure = errors.New("backpressure")

const (
	sendBuffer          = 32
	defaultWriteTimeout = 5 * time.Second
)

// wsConn pairs a websocket with a buffered outbound queue. Writers enqueue
// without blocking; writePump is the only goroutine touching the socket's
// write side.
type wsConn struct {
	conn         *websocket.Conn
	send         chan core.Frame
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func newWSConn(c *websocket.Conn, writeTimeout time.Duration) *wsConn {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &wsConn{
		conn:         c,
		send:         make(chan core.Frame, sendBuffer),
		writeTimeout: writeTimeout,
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops accepting outbound frames. The socket itself stays open until
// writePump has flushed everything already queued, so terminal events
// enqueued right before teardown still reach the peer.
func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

func (c *wsConn) writeFrame(data core.Frame) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// writePump is the only writer on the socket and owns its close: on exit,
// every frame queued before teardown has either been written or the
// transport itself failed.
func (c *wsConn) writePump(ctx context.Context) {
	defer func() {
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			c.drainQueue()
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.writeFrame(data); err != nil {
				log.Error().Err(err).Str("module", "transport.ws").Msg("writePump write error")
				return
			}
		}
	}
}

// drainQueue flushes frames enqueued before teardown began; anything still
// buffered at cancellation carries session-terminal events the peer must
// see. A receive on the closed queue keeps yielding buffered frames until
// it is empty.
func (c *wsConn) drainQueue() {
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.writeFrame(data); err != nil {
				return
			}
		default:
			return
		}
	}
}
