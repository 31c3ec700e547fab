package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_Endpoints(t *testing.T) {
	ranges := []WeightRange{VideoRange, AudioRange, RemuxRange, {Start: 10, End: 10}, {Start: 0, End: 100}}

	for _, r := range ranges {
		t.Run(r.String(), func(t *testing.T) {
			assert.Equal(t, r.Start, Map(0, r))
			assert.Equal(t, r.End, Map(1, r))
		})
	}
}

func TestMap_MonotonicInFraction(t *testing.T) {
	for _, r := range []WeightRange{VideoRange, AudioRange, RemuxRange} {
		prev := Map(0, r)
		for i := 1; i <= 1000; i++ {
			cur := Map(float64(i)/1000, r)
			if cur < prev {
				t.Fatalf("Map not monotonic on %s at step %d: %f < %f", r, i, cur, prev)
			}
			prev = cur
		}
	}
}

func TestMap_Extrapolates(t *testing.T) {
	assert.InDelta(t, 88.0, Map(1.1, VideoRange), 1e-9)
	assert.InDelta(t, -8.0, Map(-0.1, VideoRange), 1e-9)
}

func TestMap_Midpoint(t *testing.T) {
	assert.InDelta(t, 40.0, Map(0.5, VideoRange), 1e-9)
	assert.InDelta(t, 87.5, Map(0.5, AudioRange), 1e-9)
	assert.InDelta(t, 97.5, Map(0.5, RemuxRange), 1e-9)
}

func TestFraction(t *testing.T) {
	tests := []struct {
		name          string
		loaded, total int64
		expected      float64
		ok            bool
	}{
		{"unknown total", 10, -1, 0, false},
		{"zero total", 10, 0, 0, false},
		{"half", 50, 100, 0.5, true},
		{"complete", 100, 100, 1, true},
		{"over reported", 150, 100, 1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Fraction(tt.loaded, tt.total)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, f, 1e-9)
		})
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-3))
	assert.Equal(t, 0.25, Clamp01(0.25))
	assert.Equal(t, 1.0, Clamp01(7))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "Progress: 95.0%", FormatPercent(95))
	assert.Equal(t, "Progress: 33.3%", FormatPercent(33.333))
	assert.True(t, IsPercentLine(FormatPercent(0)))
	assert.False(t, IsPercentLine("[FFmpeg] frame=10 time=N/A"))
}
