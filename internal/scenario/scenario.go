// Package scenario loads and runs simulated progress sessions from a YAML
// description. Each session streams synthetic items through its own meter
// on its own display slot, which makes multi-slot rendering observable
// without real data sources.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"tally/internal/meter"
)

// Session describes one simulated progress session. Delay is a
// time.ParseDuration string applied between items, e.g. "2ms".
type Session struct {
	Activity string `yaml:"activity"`
	Suffix   string `yaml:"suffix"`
	Total    uint64 `yaml:"total"`
	Interval int    `yaml:"interval"`
	Items    uint64 `yaml:"items"`
	Delay    string `yaml:"delay"`
}

// ItemDelay returns the per-item delay, or zero when unset or unparsable.
func (s Session) ItemDelay() time.Duration {
	d, err := time.ParseDuration(s.Delay)
	if err != nil {
		return 0
	}
	return d
}

// Scenario is a set of sessions that run side by side.
type Scenario struct {
	Sessions []Session `yaml:"sessions"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every session is runnable. Interval ranges are
// left to the meter, which rejects them session by session.
func (sc *Scenario) Validate() error {
	if len(sc.Sessions) == 0 {
		return errors.New("scenario has no sessions")
	}
	for i, s := range sc.Sessions {
		if s.Items == 0 {
			return fmt.Errorf("session %d (%s): items must be positive", i, s.Activity)
		}
		if s.Delay != "" {
			if _, err := time.ParseDuration(s.Delay); err != nil {
				return fmt.Errorf("session %d (%s): bad delay: %w", i, s.Activity, err)
			}
		}
	}
	return nil
}

// Runner drives scenarios against the configured sinks.
type Runner struct {
	display meter.Display
	log     meter.LogSink
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDisplay attaches a structured progress display.
func WithDisplay(d meter.Display) RunnerOption {
	return func(r *Runner) { r.display = d }
}

// WithLog attaches a report log.
func WithLog(l meter.LogSink) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// NewRunner returns a Runner with the given options applied.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every session concurrently, one display slot per session,
// and returns the first failure. Cancelling ctx stops all sessions; their
// terminal reports still fire so the display ends clean.
func (r *Runner) Run(ctx context.Context, sc *Scenario) error {
	g, ctx := errgroup.WithContext(ctx)
	for slot, s := range sc.Sessions {
		slot, s := slot, s
		g.Go(func() error {
			return r.RunSession(ctx, s, slot)
		})
	}
	return g.Wait()
}

// RunSession drives a single synthetic session on the given display slot.
func (r *Runner) RunSession(ctx context.Context, s Session, slot int) error {
	var opts []meter.Option
	if r.display != nil {
		opts = append(opts, meter.WithDisplay(r.display))
	}
	if r.log != nil {
		opts = append(opts, meter.WithLog(r.log))
	}
	session, err := meter.Begin[uint64](meter.Config{
		Activity: s.Activity,
		Suffix:   s.Suffix,
		Total:    s.Total,
		Interval: s.Interval,
		Slot:     slot,
	}, opts...)
	if err != nil {
		return fmt.Errorf("session %q: %w", s.Activity, err)
	}
	defer session.End()

	delay := s.ItemDelay()
	for i := uint64(0); i < s.Items; i++ {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		} else if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		session.Observe(i)
	}
	return nil
}
