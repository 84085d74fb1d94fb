package model

// LogFormat selects the encoding of progress log lines.
type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// Options holds user-configurable runtime options as parsed from flags.
type Options struct {
	Label    string // Activity label override. Empty = derive from source.
	Suffix   string // Item noun for status lines, e.g. "lines".
	Total    uint64 // Expected item count. 0 = unknown.
	Interval int    // Report every N items. 0 = meter default.
	Null     bool   // Records are NUL-delimited instead of newline-delimited.
	PreCount bool   // Count records in file sources before streaming.

	Output    string    // Output path for run. Empty or "-" = stdout.
	LogPath   string    // Progress log file. Empty = stderr.
	LogFormat LogFormat // text | json
	NoUI      bool      // Disable the live display when true.
	Quiet     bool      // Suppress progress logging entirely.

	Jobs   int    // Max concurrent sessions for TUI mode.
	OutDir string // Directory for per-source outputs in TUI mode.
}

// Delimiter returns the record separator implied by the options.
func (o Options) Delimiter() byte {
	if o.Null {
		return 0x00
	}
	return '\n'
}
