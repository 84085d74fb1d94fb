// Package stream moves delimited records from a reader to a writer while a
// progress session counts them. The pump never reorders, drops, or alters
// a record: output bytes match input bytes exactly, including a final
// record with no trailing delimiter.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"tally/internal/meter"
)

const bufSize = 64 * 1024

// Pump streams records through progress sessions. The zero value pumps
// newline-delimited records and reports to nothing; use options to attach
// sinks or change the delimiter.
type Pump struct {
	delim   byte
	display meter.Display
	log     meter.LogSink
}

// PumpOption configures a Pump.
type PumpOption func(*Pump)

// WithDelimiter sets the record delimiter, e.g. 0 for NUL-separated input.
func WithDelimiter(d byte) PumpOption {
	return func(p *Pump) { p.delim = d }
}

// WithDisplay attaches a structured progress display.
func WithDisplay(d meter.Display) PumpOption {
	return func(p *Pump) { p.display = d }
}

// WithLog attaches a report log.
func WithLog(l meter.LogSink) PumpOption {
	return func(p *Pump) { p.log = l }
}

// NewPump returns a newline-delimited pump with the given options applied.
func NewPump(opts ...PumpOption) *Pump {
	p := &Pump{delim: '\n'}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run copies records from in to out, observing each through one progress
// session configured by cfg. It returns the number of records moved. The
// terminal report fires on every exit path, including cancellation, so an
// attached display always gets its slot released.
func (p *Pump) Run(ctx context.Context, in io.Reader, out io.Writer, cfg meter.Config) (uint64, error) {
	var opts []meter.Option
	if p.display != nil {
		opts = append(opts, meter.WithDisplay(p.display))
	}
	if p.log != nil {
		opts = append(opts, meter.WithLog(p.log))
	}
	session, err := meter.Begin[[]byte](cfg, opts...)
	if err != nil {
		return 0, err
	}
	defer session.End()

	r := bufio.NewReaderSize(in, bufSize)
	w := bufio.NewWriterSize(out, bufSize)
	defer w.Flush()

	for {
		if err := ctx.Err(); err != nil {
			return session.Count(), err
		}
		record, err := r.ReadBytes(p.delim)
		if len(record) > 0 {
			if _, werr := w.Write(session.Observe(record)); werr != nil {
				return session.Count(), fmt.Errorf("write record: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return session.Count(), fmt.Errorf("read record: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return session.Count(), fmt.Errorf("flush output: %w", err)
	}
	return session.Count(), nil
}
