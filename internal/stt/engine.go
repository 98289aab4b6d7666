// Package stt defines the recognition engine boundary. The session state
// machine in internal/app only ever sees these interfaces, so any backend
// that can classify ordered PCM chunks into partial and final transcripts
// plugs in here.
package stt

// Result is one classification step: either the chunk completed an utterance
// (Final with its settled text) or recognition is still in progress (Text
// holds the best-effort partial, possibly empty).
type Result struct {
	Final bool
	Text  string
}

// Recognizer is one bound recognition stream. Feed must be called with
// chunks in arrival order; reordering corrupts the transcript.
type Recognizer interface {
	Feed(pcm []byte) (Result, error)
	// Finalize flushes any trailing buffered speech and returns its text.
	Finalize() (string, error)
	Close() error
}

// Engine creates recognizers bound to a sample rate.
type Engine interface {
	Bind(sampleRate int) (Recognizer, error)
}
