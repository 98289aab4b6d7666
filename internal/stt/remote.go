package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	bindTimeout     = 10 * time.Second
	finalizeTimeout = 5 * time.Second
)

// RemoteEngine speaks the streaming recognizer protocol over a websocket to
// an upstream model server: a start control message opens a stream, binary
// frames carry PCM, and the upstream answers with partial/final/ended
// envelopes. One websocket per bound recognizer.
type RemoteEngine struct {
	URL    string
	Dialer *websocket.Dialer
}

func NewRemoteEngine(url string) *RemoteEngine {
	return &RemoteEngine{URL: url, Dialer: websocket.DefaultDialer}
}

// Probe checks that the upstream recognizer is reachable. Called once at
// startup; a failure here must prevent the service from accepting
// connections at all.
func (e *RemoteEngine) Probe(ctx context.Context) error {
	conn, _, err := e.Dialer.DialContext(ctx, e.URL, nil)
	if err != nil {
		return fmt.Errorf("recognizer unreachable at %s: %w", e.URL, err)
	}
	return conn.Close()
}

// Bind opens a recognition stream at the given sample rate.
func (e *RemoteEngine) Bind(sampleRate int) (Recognizer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), bindTimeout)
	defer cancel()

	conn, _, err := e.Dialer.DialContext(ctx, e.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial recognizer: %w", err)
	}

	r := &remoteRecognizer{
		conn:    conn,
		events:  make(chan remoteEvent, 64),
		started: make(chan error, 1),
		done:    make(chan struct{}),
	}
	go r.readLoop()

	start := struct {
		Type       string `json:"type"`
		SampleRate int    `json:"sampleRate"`
	}{"start", sampleRate}
	if err := r.writeJSON(start); err != nil {
		r.Close()
		return nil, fmt.Errorf("start recognizer: %w", err)
	}

	select {
	case err := <-r.started:
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("recognizer rejected start: %w", err)
		}
	case <-time.After(bindTimeout):
		r.Close()
		return nil, errors.New("recognizer start timed out")
	}
	return r, nil
}

type remoteEvent struct {
	res   Result
	ended bool
}

type remoteRecognizer struct {
	conn    *websocket.Conn
	events  chan remoteEvent
	started chan error
	done    chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (r *remoteRecognizer) writeJSON(v any) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteJSON(v)
}

// readLoop turns upstream envelopes into events. It exits when the socket
// closes or the upstream ends the stream.
func (r *remoteRecognizer) readLoop() {
	defer close(r.events)
	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Type    string `json:"type"`
			Text    string `json:"text"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Str("module", "stt.remote").Err(err).Msg("bad upstream frame")
			continue
		}
		switch msg.Type {
		case "system":
			// greeting, nothing to do
		case "started":
			select {
			case r.started <- nil:
			default:
			}
		case "error":
			select {
			case r.started <- errors.New(msg.Message):
			default:
				log.Warn().Str("module", "stt.remote").Str("message", msg.Message).Msg("upstream error")
			}
		case "partial":
			r.emit(remoteEvent{res: Result{Text: msg.Text}})
		case "final":
			r.emit(remoteEvent{res: Result{Final: true, Text: msg.Text}})
		case "ended":
			r.emit(remoteEvent{ended: true})
			return
		}
	}
}

func (r *remoteRecognizer) emit(ev remoteEvent) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

// Feed forwards a chunk and returns the next pending upstream result, if one
// has arrived. Upstream classification is asynchronous, so a result may
// surface one or two chunks after the audio that produced it; for streaming
// transcription that lag is invisible to the client.
func (r *remoteRecognizer) Feed(pcm []byte) (Result, error) {
	r.writeMu.Lock()
	err := r.conn.WriteMessage(websocket.BinaryMessage, pcm)
	r.writeMu.Unlock()
	if err != nil {
		return Result{}, fmt.Errorf("feed recognizer: %w", err)
	}
	select {
	case ev, ok := <-r.events:
		if !ok || ev.ended {
			return Result{}, errors.New("recognizer stream ended early")
		}
		return ev.res, nil
	default:
		return Result{}, nil
	}
}

// Finalize asks the upstream to flush and returns the trailing final text.
// Because Feed surfaces results without blocking, several finals may still
// be queued by stop time; all of them belong to the transcript, so they are
// collected rather than overwritten.
func (r *remoteRecognizer) Finalize() (string, error) {
	stop := struct {
		Type string `json:"type"`
	}{"stop"}
	if err := r.writeJSON(stop); err != nil {
		return "", fmt.Errorf("stop recognizer: %w", err)
	}
	var parts []string
	deadline := time.After(finalizeTimeout)
	for {
		select {
		case ev, ok := <-r.events:
			if !ok || ev.ended {
				return strings.Join(parts, " "), nil
			}
			if ev.res.Final && ev.res.Text != "" {
				parts = append(parts, ev.res.Text)
			}
		case <-deadline:
			return strings.Join(parts, " "), errors.New("recognizer finalize timed out")
		}
	}
}

func (r *remoteRecognizer) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		_ = r.conn.Close()
	})
	return nil
}
