package stt

import "sync"

// ScriptedEngine is a deterministic in-process engine. Each bound recognizer
// replays Script one result per Feed call and returns Tail from Finalize.
// Tests use it to drive the session state machine without a real model.
type ScriptedEngine struct {
	BindErr error
	Script  []Result
	Tail    string

	mu          sync.Mutex
	recognizers []*ScriptedRecognizer
}

func (e *ScriptedEngine) Bind(sampleRate int) (Recognizer, error) {
	if e.BindErr != nil {
		return nil, e.BindErr
	}
	r := &ScriptedRecognizer{script: e.Script, tail: e.Tail, rate: sampleRate}
	e.mu.Lock()
	e.recognizers = append(e.recognizers, r)
	e.mu.Unlock()
	return r, nil
}

// Recognizers returns every recognizer this engine has bound, in order.
func (e *ScriptedEngine) Recognizers() []*ScriptedRecognizer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*ScriptedRecognizer(nil), e.recognizers...)
}

type ScriptedRecognizer struct {
	FeedErr error

	mu     sync.Mutex
	script []Result
	next   int
	tail   string
	rate   int
	fed    int
	closed bool
}

func (r *ScriptedRecognizer) Feed(pcm []byte) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fed++
	if r.FeedErr != nil {
		return Result{}, r.FeedErr
	}
	if r.next >= len(r.script) {
		return Result{}, nil
	}
	res := r.script[r.next]
	r.next++
	return res, nil
}

func (r *ScriptedRecognizer) Finalize() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail, nil
}

func (r *ScriptedRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether Close was called.
func (r *ScriptedRecognizer) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Fed reports how many chunks were fed.
func (r *ScriptedRecognizer) Fed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fed
}

// SampleRate reports the rate the recognizer was bound with.
func (r *ScriptedRecognizer) SampleRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate
}
