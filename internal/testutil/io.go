package testutil

import (
	"sync"

	"github.com/roach88/brainplus/internal/engine"
)

// ScriptedInput returns an input hook that yields data in order and 0
// once it runs out.
func ScriptedInput(data ...byte) engine.InputFunc {
	pos := 0
	return func(*engine.Engine) byte {
		if pos >= len(data) {
			return 0
		}
		b := data[pos]
		pos++
		return b
	}
}

// OutputRecorder collects bytes emitted by '.'.
type OutputRecorder struct {
	mu  sync.Mutex
	buf []byte
}

// Hook returns the output hook that appends to the recorder.
func (r *OutputRecorder) Hook() engine.OutputFunc {
	return func(_ *engine.Engine, b byte) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.buf = append(r.buf, b)
	}
}

// Bytes returns a copy of everything recorded.
func (r *OutputRecorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.buf...)
}

// String returns the recorded output as text.
func (r *OutputRecorder) String() string {
	return string(r.Bytes())
}
