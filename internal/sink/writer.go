package sink

import (
	"fmt"
	"io"
	"sync"
)

// Writer appends one line per report to an io.Writer. A single Writer may
// be shared by concurrent sessions.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer logging to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Line implements meter.LogSink.
func (s *Writer) Line(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, text)
}
