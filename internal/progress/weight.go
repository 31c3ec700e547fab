package progress

import (
	"fmt"
	"strings"
)

// WeightRange is the slice of the global 0-100 scale owned by one stage.
type WeightRange struct {
	Start float64
	End   float64
}

// Stage ranges used by a merge run
var (
	VideoRange = WeightRange{Start: 0, End: 80}
	AudioRange = WeightRange{Start: 80, End: 95}
	RemuxRange = WeightRange{Start: 95, End: 100}
)

// Complete is the terminal percentage of a successful run
const Complete = 100.0

// Map projects a local fraction onto the global scale. Fractions outside
// [0,1] are not clamped.
func Map(fraction float64, r WeightRange) float64 {
	return r.Start + fraction*(r.End-r.Start)
}

// Fraction returns loaded/total, or false when the total is unknown.
func Fraction(loaded, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return float64(loaded) / float64(total), true
}

// Clamp01 limits f to [0,1].
func Clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// PercentPrefix starts every line produced by FormatPercent
const PercentPrefix = "Progress: "

// FormatPercent renders a progress log line such as "Progress: 42.0%".
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%s%.1f%%", PercentPrefix, pct)
}

// IsPercentLine reports whether msg was produced by FormatPercent.
func IsPercentLine(msg string) bool {
	return strings.HasPrefix(msg, PercentPrefix)
}

// String implements fmt.Stringer
func (r WeightRange) String() string {
	return fmt.Sprintf("[%.0f,%.0f]", r.Start, r.End)
}
