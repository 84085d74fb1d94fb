// Package sink provides the endpoints progress sessions publish to: plain
// line writers and zap loggers for report text, and an in-terminal renderer
// for structured updates.
package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"tally/internal/meter"
)

// Inline renders one live line per display slot directly on a terminal,
// repainting the block in place with ANSI cursor movement. When a slot
// completes, its line is frozen into scrollback and the live block
// shrinks. Safe for concurrent use by multiple sessions.
type Inline struct {
	mu    sync.Mutex
	w     io.Writer
	live  map[int]meter.Update
	order []int
	drawn int
}

// NewInline returns a renderer writing to w, normally stderr so metered
// data can keep flowing through stdout.
func NewInline(w io.Writer) *Inline {
	return &Inline{w: w, live: make(map[int]meter.Update)}
}

// Publish implements meter.Display.
func (r *Inline) Publish(u meter.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Completed {
		r.complete(u.Slot)
		return
	}
	if _, ok := r.live[u.Slot]; !ok {
		r.order = append(r.order, u.Slot)
	}
	r.live[u.Slot] = u
	r.repaint("")
}

// complete removes the slot from the live block, freezing its last
// reported state into scrollback.
func (r *Inline) complete(slot int) {
	last, ok := r.live[slot]
	if !ok {
		return
	}
	delete(r.live, slot)
	for i, s := range r.order {
		if s == slot {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.repaint(frozenLine(last))
}

// repaint rewrites the live block over its previous frame. A completion
// removes one live line and adds one frozen line in its place, so every
// frame covers at least the lines of the frame before it and no stale
// lines survive.
func (r *Inline) repaint(frozen string) {
	if r.drawn > 0 {
		fmt.Fprintf(r.w, "\x1b[%dA", r.drawn)
	}
	if frozen != "" {
		fmt.Fprintf(r.w, "\r\x1b[K%s\n", frozen)
	}
	for _, slot := range r.order {
		fmt.Fprintf(r.w, "\r\x1b[K%s\n", liveLine(r.live[slot]))
	}
	r.drawn = len(r.order)
}

func liveLine(u meter.Update) string {
	var b strings.Builder
	if u.Activity != "" {
		b.WriteString(u.Activity)
		b.WriteString(": ")
	}
	b.WriteString(u.Status)
	if u.Operation != "" {
		b.WriteString("  ")
		b.WriteString(u.Operation)
	}
	return b.String()
}

func frozenLine(u meter.Update) string {
	if u.Activity != "" {
		return "✓ " + u.Activity + ": " + u.Status
	}
	return "✓ " + u.Status
}
