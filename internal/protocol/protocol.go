// Package protocol defines the JSON envelopes exchanged over the websocket.
// Every envelope carries a "type" discriminator; the remaining fields depend
// on the kind.
package protocol

import (
	"encoding/json"

	"github.com/secondbrain/realtime/internal/core"
)

// Inbound is the union of all client-to-server control envelopes. The chat
// service reads Payload, the STT service reads SampleRate; unknown fields are
// ignored.
type Inbound struct {
	Type    string `json:"type"`
	Payload struct {
		Room     string `json:"room"`
		Message  string `json:"message"`
		ClientID string `json:"clientId"`
	} `json:"payload"`
	SampleRate int `json:"sampleRate"`
}

// Decode parses an inbound control frame.
func Decode(data core.Frame) (Inbound, error) {
	var in Inbound
	err := json.Unmarshal(data, &in)
	return in, err
}

// The outbound constructors below marshal fixed struct shapes; marshaling
// cannot fail for these, so they return the frame directly.

func encode(v any) core.Frame {
	b, _ := json.Marshal(v)
	return b
}

// System is the greeting sent right after accept.
func System(message string) core.Frame {
	return encode(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"system", message})
}

// Error reports a recoverable protocol or processing error to one client.
func Error(message string) core.Frame {
	return encode(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"error", message})
}

// RoomCreated confirms a create request with the new room token.
func RoomCreated(hash core.RoomToken) core.Frame {
	return encode(struct {
		Type string `json:"type"`
		Hash string `json:"hash"`
	}{"room_created", string(hash)})
}

// Joined confirms a join request.
func Joined(room core.RoomToken) core.Frame {
	return encode(struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}{"joined", string(room)})
}

// Chat is the fan-out envelope delivered to every room member.
func Chat(message, clientID string) core.Frame {
	type payload struct {
		Message  string `json:"message"`
		ClientID string `json:"clientId"`
	}
	return encode(struct {
		Type    string  `json:"type"`
		Payload payload `json:"payload"`
	}{"chat", payload{message, clientID}})
}

// Started confirms a recognition session with the effective sample rate.
func Started(sampleRate int) core.Frame {
	return encode(struct {
		Type       string `json:"type"`
		SampleRate int    `json:"sampleRate"`
	}{"started", sampleRate})
}

// Partial carries in-progress transcript text.
func Partial(text string) core.Frame {
	return encode(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{"partial", text})
}

// Final carries settled transcript text for a completed utterance.
func Final(text string) core.Frame {
	return encode(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{"final", text})
}

// Ended terminates a recognition session.
func Ended() core.Frame {
	return encode(struct {
		Type string `json:"type"`
	}{"ended"})
}
