package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecodeChatEnvelope(t *testing.T) {
	in, err := Decode([]byte(`{"type":"chat","payload":{"message":"hi","clientId":"c1"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Type != "chat" {
		t.Errorf("type = %q, want %q", in.Type, "chat")
	}
	if in.Payload.Message != "hi" {
		t.Errorf("message = %q, want %q", in.Payload.Message, "hi")
	}
	if in.Payload.ClientID != "c1" {
		t.Errorf("clientId = %q, want %q", in.Payload.ClientID, "c1")
	}
}

func TestDecodeStartEnvelope(t *testing.T) {
	in, err := Decode([]byte(`{"type":"start","sampleRate":44100}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Type != "start" {
		t.Errorf("type = %q, want %q", in.Type, "start")
	}
	if in.SampleRate != 44100 {
		t.Errorf("sampleRate = %d, want 44100", in.SampleRate)
	}
}

func TestDecodeRejectsMalformedFrame(t *testing.T) {
	if _, err := Decode([]byte(`{"type":`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func decodeMap(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return m
}

func TestOutboundEnvelopeShapes(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  map[string]any
	}{
		{"system", System("Connected to chat server"), map[string]any{"type": "system", "message": "Connected to chat server"}},
		{"error", Error("Room not found!"), map[string]any{"type": "error", "message": "Room not found!"}},
		{"room_created", RoomCreated("abcd1234abcd1234"), map[string]any{"type": "room_created", "hash": "abcd1234abcd1234"}},
		{"joined", Joined("abcd1234abcd1234"), map[string]any{"type": "joined", "room": "abcd1234abcd1234"}},
		{"started", Started(16000), map[string]any{"type": "started", "sampleRate": float64(16000)}},
		{"partial", Partial("hel"), map[string]any{"type": "partial", "text": "hel"}},
		{"final", Final("hello"), map[string]any{"type": "final", "text": "hello"}},
		{"ended", Ended(), map[string]any{"type": "ended"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeMap(t, tt.frame)
			if len(got) != len(tt.want) {
				t.Errorf("fields = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestChatEnvelopeNestsPayload(t *testing.T) {
	got := decodeMap(t, Chat("hi there", "client-7"))
	if got["type"] != "chat" {
		t.Errorf("type = %v, want chat", got["type"])
	}
	payload, ok := got["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload missing or not an object: %v", got)
	}
	if payload["message"] != "hi there" {
		t.Errorf("message = %v, want %q", payload["message"], "hi there")
	}
	if payload["clientId"] != "client-7" {
		t.Errorf("clientId = %v, want %q", payload["clientId"], "client-7")
	}
}
