// Package meter tracks throughput of a streamed sequence of items and
// periodically publishes progress reports: count, percent complete when the
// expected total is known, elapsed time, and an estimated completion time.
// Items flow through a Session unchanged; reporting is a side effect.
package meter

import (
	"errors"
	"math"
	"time"
)

// DefaultInterval is the report cadence used when Config.Interval is zero.
const DefaultInterval = 1000

// MaxInterval bounds Config.Interval. Keeping the interval well below the
// 32-bit range leaves the percent arithmetic headroom before overflow.
const MaxInterval = math.MaxInt32 / 100

// ErrInvalidConfiguration is returned by Begin when the session
// configuration is out of range.
var ErrInvalidConfiguration = errors.New("invalid session configuration")

// Config describes one progress session over one streamed sequence.
type Config struct {
	// Activity is the display name of the operation being monitored.
	Activity string

	// Suffix is the unit label appended to the count, e.g. "records".
	Suffix string

	// Total is the expected number of items. Zero means unknown: the
	// session degrades to a raw counter with no percent and no ETA.
	Total uint64

	// Interval is the number of items between periodic reports. Zero
	// selects DefaultInterval; Begin rejects negative values and values
	// above MaxInterval.
	Interval int

	// Slot identifies which display slot the session writes to, so that
	// several sessions can publish side by side without clobbering each
	// other.
	Slot int
}

// Update is a structured progress notification for one display slot.
// Percent is 0..100 when known; set to a negative value (e.g., -1) to mean
// unknown. A Completed update blanks and releases the slot.
type Update struct {
	Slot      int
	Activity  string
	Status    string
	Percent   float64 // 0..100, or <0 if unknown
	Operation string  // elapsed/ETA detail line
	Completed bool
}

// Display is implemented by UI or any observer interested in structured
// progress updates.
type Display interface {
	Publish(u Update)
}

// LogSink receives the human-readable text of each report, one call per
// report. The text may span two lines joined by a line break.
type LogSink interface {
	Line(text string)
}

type nopDisplay struct{}

func (nopDisplay) Publish(Update) {}

type nopLog struct{}

func (nopLog) Line(string) {}

type settings struct {
	log     LogSink
	display Display
	now     func() time.Time
}

// Option customizes a session's collaborators.
type Option func(*settings)

// WithLog routes report text to sink.
func WithLog(sink LogSink) Option {
	return func(s *settings) { s.log = sink }
}

// WithDisplay routes structured updates to d.
func WithDisplay(d Display) Option {
	return func(s *settings) { s.display = d }
}

// WithClock overrides the time source (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}
