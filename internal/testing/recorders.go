package testing

import (
	"context"
	"slices"
	"sync"
)

// RecordingIndicator stores every text it is given.
type RecordingIndicator struct {
	mu    sync.Mutex
	texts []string
}

func (r *RecordingIndicator) SetText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

// Texts returns the recorded texts in order.
func (r *RecordingIndicator) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.texts)
}

// RecordingRegistrar is a hotkey table fake that records register/unregister operations.
type RecordingRegistrar struct {
	mu       sync.Mutex
	handlers map[string]func(context.Context)
	ops      []string
	// Reject makes Register fail for the listed chords.
	Reject map[string]bool
}

// NewRecordingRegistrar returns an empty registrar.
func NewRecordingRegistrar() *RecordingRegistrar {
	return &RecordingRegistrar{handlers: make(map[string]func(context.Context))}
}

func (r *RecordingRegistrar) Register(chord string, handler func(context.Context)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "register "+chord)
	if _, ok := r.handlers[chord]; ok || r.Reject[chord] {
		return false
	}
	r.handlers[chord] = handler
	return true
}

func (r *RecordingRegistrar) Unregister(chord string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "unregister "+chord)
	if _, ok := r.handlers[chord]; !ok {
		return false
	}
	delete(r.handlers, chord)
	return true
}

// Ops returns the recorded operations, e.g. "register <chord>".
func (r *RecordingRegistrar) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ops)
}

// ResetOps forgets recorded operations but keeps registrations.
func (r *RecordingRegistrar) ResetOps() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
}

// Chords returns the registered chords, sorted.
func (r *RecordingRegistrar) Chords() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var chords []string
	for c := range r.handlers {
		chords = append(chords, c)
	}
	slices.Sort(chords)
	return chords
}

// Trigger runs the handler bound to chord. It reports false when nothing is bound.
func (r *RecordingRegistrar) Trigger(ctx context.Context, chord string) bool {
	r.mu.Lock()
	h, ok := r.handlers[chord]
	r.mu.Unlock()
	if !ok {
		return false
	}
	h(ctx)
	return true
}
