package meter

import (
	"fmt"
	"time"

	"tally/internal/util/format"
)

// Session wraps one pass over one streamed sequence of items. Every item
// handed to Observe is returned unchanged and in order; the session counts
// it and reports whenever the count reaches a positive multiple of the
// configured interval. A session is single-threaded and must not be reused
// across sequences; run independent sessions on distinct display slots
// when streams overlap.
type Session[T any] struct {
	cfg   Config
	every uint64

	log     LogSink
	display Display
	now     func() time.Time

	start time.Time
	seen  uint64
	ended bool
}

// Begin starts a session, captures the start time, and emits the
// initializing report (count zero, percent zero when the total is known)
// to both sinks. A zero cfg.Interval selects DefaultInterval; a negative
// interval or one above MaxInterval fails with ErrInvalidConfiguration.
func Begin[T any](cfg Config, opts ...Option) (*Session[T], error) {
	if cfg.Interval < 0 || cfg.Interval > MaxInterval {
		return nil, fmt.Errorf("interval %d out of range [1, %d]: %w", cfg.Interval, MaxInterval, ErrInvalidConfiguration)
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}

	set := settings{log: nopLog{}, display: nopDisplay{}, now: time.Now}
	for _, opt := range opts {
		opt(&set)
	}

	s := &Session[T]{
		cfg:     cfg,
		every:   uint64(cfg.Interval),
		log:     set.log,
		display: set.display,
		now:     set.now,
	}
	s.start = s.now()
	s.report(reportInitial)
	return s, nil
}

// Observe counts item and passes it back unchanged. When the running count
// reaches a positive multiple of the interval, a periodic report is
// emitted before the item is returned. Report computation never fails the
// pass-through: estimation breakdowns are logged and substituted.
func (s *Session[T]) Observe(item T) T {
	s.seen++
	if s.seen%s.every == 0 {
		s.report(reportPeriodic)
	}
	return item
}

// End emits the terminal report, which blanks the session's display slot
// and marks it complete. Extra calls are no-ops, and End never changes the
// observed count.
func (s *Session[T]) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.report(reportTerminal)
}

// Count reports the number of items observed so far.
func (s *Session[T]) Count() uint64 {
	return s.seen
}

type reportKind int

const (
	reportInitial reportKind = iota
	reportPeriodic
	reportTerminal
)

// report formats and publishes one progress report. All three kinds share
// this routine: the kind decides whether an ETA is extrapolated and
// whether the display slot is blanked.
func (s *Session[T]) report(kind reportKind) {
	now := s.now()
	elapsed := now.Sub(s.start)

	if kind == reportTerminal {
		s.log.Line(fmt.Sprintf("%s: finished, %d %s in %s", s.cfg.Activity, s.seen, s.cfg.Suffix, format.Elapsed(elapsed)))
		s.display.Publish(Update{Slot: s.cfg.Slot, Percent: -1, Completed: true})
		return
	}

	status, percent := s.status()
	op := "Elapsed: " + format.Elapsed(elapsed)
	if kind == reportPeriodic && s.cfg.Total > 0 {
		op += "  Expected completion: " + format.Clock(s.eta(now, elapsed))
	}

	s.log.Line(fmt.Sprintf("%s: %s\n%s", s.cfg.Activity, status, op))
	s.display.Publish(Update{
		Slot:      s.cfg.Slot,
		Activity:  s.cfg.Activity,
		Status:    status,
		Percent:   percent,
		Operation: op,
	})
}

// status renders the count portion of a report. With a known total the
// count is left-aligned to the total's digit width so successive reports
// line up, and the modulo keeps a displayed percent from ever exceeding
// 100 when the count overshoots the total. Without a total the status is
// the raw count and percent is unknown.
func (s *Session[T]) status() (string, float64) {
	if s.cfg.Total == 0 {
		return fmt.Sprintf("%d %s", s.seen, s.cfg.Suffix), -1
	}
	pct := (100 * s.seen / s.cfg.Total) % 101
	return fmt.Sprintf("%-*d / %d (%d%%) %s", format.Digits(s.cfg.Total), s.seen, s.cfg.Total, pct, s.cfg.Suffix), float64(pct)
}

// eta extrapolates the wall-clock completion time from throughput so far.
// Nothing remaining means completion is now. Estimation breakdowns are
// absorbed here: the session logs a warning and answers "now".
func (s *Session[T]) eta(now time.Time, elapsed time.Duration) time.Time {
	remaining := int64(s.cfg.Total) - int64(s.seen)
	if remaining <= 0 {
		return now
	}
	at, err := estimateCompletion(now, elapsed, remaining, s.seen)
	if err != nil {
		s.log.Line("warning: " + err.Error())
		return now
	}
	return at
}
