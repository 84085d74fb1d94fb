package meter

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// errEstimation marks an arithmetic breakdown inside the completion
// estimate. It never escapes the package; reports log a warning and
// substitute "now".
var errEstimation = errors.New("completion estimate unavailable")

// estimateCompletion extrapolates a completion time from the observed
// throughput. The fudge factor is hand tuned rather than derived: it
// discounts the raw elapsed-per-item extrapolation heavily while many
// items remain and converges as the backlog drains, so the estimate
// sharpens toward the end of a stream. Best effort, not a commitment.
//
// The nested logarithms are undefined for remaining < 3, and the factor
// goes negative just above that. Undefined results are reported as
// errEstimation; non-positive results quietly collapse to now.
func estimateCompletion(now time.Time, elapsed time.Duration, remaining int64, seen uint64) (time.Time, error) {
	fudge := (1 + math.Log10(math.Log10(math.Log(float64(remaining))))) / float64(seen) / 1000
	seconds := float64(elapsed) / float64(time.Millisecond) * float64(remaining) * fudge
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return now, fmt.Errorf("%w: %d remaining", errEstimation, remaining)
	}
	if seconds <= 0 {
		return now, nil
	}
	return now.Add(time.Duration(seconds * float64(time.Second))), nil
}
