package sink

import (
	"bytes"
	"strings"
	"testing"

	"tally/internal/meter"
)

func TestInline_SingleSlot(t *testing.T) {
	var buf bytes.Buffer
	r := NewInline(&buf)

	r.Publish(meter.Update{Slot: 0, Activity: "copy", Status: "0 / 5 (0%) items", Operation: "Elapsed: 00:00:00"})
	first := buf.String()
	if strings.Contains(first, "\x1b[1A") {
		t.Errorf("first frame moved the cursor up: %q", first)
	}
	want := "\r\x1b[Kcopy: 0 / 5 (0%) items  Elapsed: 00:00:00\n"
	if first != want {
		t.Errorf("first frame = %q, want %q", first, want)
	}

	buf.Reset()
	r.Publish(meter.Update{Slot: 0, Activity: "copy", Status: "2 / 5 (40%) items", Operation: "Elapsed: 00:00:01"})
	second := buf.String()
	if !strings.HasPrefix(second, "\x1b[1A") {
		t.Errorf("second frame did not repaint in place: %q", second)
	}
	if !strings.Contains(second, "2 / 5 (40%) items") {
		t.Errorf("second frame missing updated status: %q", second)
	}
}

func TestInline_TwoSlots(t *testing.T) {
	var buf bytes.Buffer
	r := NewInline(&buf)

	r.Publish(meter.Update{Slot: 0, Activity: "a.log", Status: "10 lines"})
	r.Publish(meter.Update{Slot: 1, Activity: "b.log", Status: "20 lines"})

	buf.Reset()
	r.Publish(meter.Update{Slot: 0, Activity: "a.log", Status: "30 lines"})
	frame := buf.String()
	if !strings.HasPrefix(frame, "\x1b[2A") {
		t.Errorf("frame with two slots should repaint both lines: %q", frame)
	}
	ai := strings.Index(frame, "a.log")
	bi := strings.Index(frame, "b.log")
	if ai < 0 || bi < 0 || ai > bi {
		t.Errorf("slots not in first-seen order in frame %q", frame)
	}
}

func TestInline_CompletionFreezesLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewInline(&buf)

	r.Publish(meter.Update{Slot: 0, Activity: "copy", Status: "5 / 5 (100%) items"})
	r.Publish(meter.Update{Slot: 1, Activity: "scan", Status: "900 rows"})

	buf.Reset()
	r.Publish(meter.Update{Slot: 0, Completed: true, Percent: -1})
	frame := buf.String()
	if !strings.Contains(frame, "✓ copy: 5 / 5 (100%) items") {
		t.Errorf("completion frame missing frozen line: %q", frame)
	}
	if !strings.Contains(frame, "scan: 900 rows") {
		t.Errorf("completion frame dropped the surviving slot: %q", frame)
	}

	// The live block is down to one line.
	buf.Reset()
	r.Publish(meter.Update{Slot: 1, Activity: "scan", Status: "1000 rows"})
	if !strings.HasPrefix(buf.String(), "\x1b[1A") {
		t.Errorf("live block should be one line after completion: %q", buf.String())
	}
}

func TestInline_CompletionForUnknownSlot(t *testing.T) {
	var buf bytes.Buffer
	r := NewInline(&buf)

	r.Publish(meter.Update{Slot: 7, Completed: true})
	if buf.Len() != 0 {
		t.Errorf("completing a slot that never reported wrote output: %q", buf.String())
	}
}
