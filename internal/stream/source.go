package stream

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Source names one input to meter: a file path, or standard input when
// the path is empty.
type Source struct {
	Label string
	Path  string
}

// Sources maps command-line arguments to inputs. No arguments, or the
// argument "-", means standard input.
func Sources(args []string) []Source {
	if len(args) == 0 {
		return []Source{{Label: "stdin"}}
	}
	out := make([]Source, 0, len(args))
	for _, a := range args {
		if a == "-" {
			out = append(out, Source{Label: "stdin"})
			continue
		}
		out = append(out, Source{Label: a, Path: a})
	}
	return out
}

// Stdin reports whether the source reads standard input.
func (s Source) Stdin() bool {
	return s.Path == ""
}

// Open returns the source's reader. Standard input comes back behind a
// no-op closer so callers can close every source uniformly.
func (s Source) Open() (io.ReadCloser, error) {
	if s.Stdin() {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	return f, nil
}

// Size returns the source's byte size when it is a regular file.
func (s Source) Size() (int64, bool) {
	if s.Stdin() {
		return 0, false
	}
	fi, err := os.Stat(s.Path)
	if err != nil || !fi.Mode().IsRegular() {
		return 0, false
	}
	return fi.Size(), true
}

// PreCount scans the source once and counts its records, giving a session
// an exact total. Standard input is not rewindable and cannot be
// pre-counted.
func (s Source) PreCount(delim byte) (uint64, error) {
	if s.Stdin() {
		return 0, errors.New("cannot pre-count standard input")
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()
	return CountRecords(f, delim)
}
