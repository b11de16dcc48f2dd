// Package resync derives and applies linear timing corrections to subtitle
// documents.
//
// Drift is modelled as a constant frame-rate mismatch: every timestamp is
// scaled by one ratio around an anchor pair. With a single reference the
// anchor is the start of the file, so time zero stays at zero.
package resync

import (
	"fmt"
	"math"
	"time"

	"github.com/mgpai22/subsync/internal/subtitle"
)

// largest millisecond count a time.Duration can hold
const maxMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// Transform maps t to To + (t - From) * Ratio, rounded to the millisecond.
type Transform struct {
	ratio float64
	from  time.Duration
	to    time.Duration
}

// DeriveTransform computes the zero-anchored transform that moves from to to.
func DeriveTransform(from, to time.Duration) (Transform, error) {
	if err := checkNonNegative(from, to); err != nil {
		return Transform{}, err
	}
	if from == 0 {
		return Transform{}, &DegenerateReferenceError{
			From:   from,
			To:     to,
			Reason: "reference is at the start of the file and carries no drift",
		}
	}
	if to == 0 {
		return Transform{}, &DegenerateReferenceError{
			From:   from,
			To:     to,
			Reason: "target is at the start of the file",
		}
	}

	return Transform{ratio: millis(to) / millis(from)}, nil
}

// DeriveTwoPoint computes the transform through two reference pairs, which
// corrects a constant offset and drift together. The first pair is the
// anchor.
func DeriveTwoPoint(from1, to1, from2, to2 time.Duration) (Transform, error) {
	if err := checkNonNegative(from1, to1, from2, to2); err != nil {
		return Transform{}, err
	}
	if from1 == from2 {
		return Transform{}, &DegenerateReferenceError{
			From:   from2,
			To:     to2,
			Reason: "both references are at the same time",
		}
	}

	ratio := (millis(to2) - millis(to1)) / (millis(from2) - millis(from1))
	if ratio <= 0 {
		return Transform{}, &DegenerateReferenceError{
			From:   from2,
			To:     to2,
			Reason: "references would reverse or collapse the timeline",
		}
	}

	return Transform{ratio: ratio, from: from1, to: to1}, nil
}

// FromFrameRates returns the transform for subtitles timed against
// subtitleFPS played over a video running at videoFPS.
func FromFrameRates(subtitleFPS, videoFPS float64) (Transform, error) {
	for _, fps := range []float64{subtitleFPS, videoFPS} {
		if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
			return Transform{}, &DegenerateReferenceError{
				Reason: fmt.Sprintf("invalid frame rate %v", fps),
			}
		}
	}
	return Transform{ratio: subtitleFPS / videoFPS}, nil
}

// ParseReference parses the two reference timecodes and derives the
// zero-anchored transform between them.
func ParseReference(from, to string) (Transform, error) {
	fromTime, err := subtitle.ParseTimecode(from)
	if err != nil {
		return Transform{}, fmt.Errorf("invalid from reference: %w", err)
	}
	toTime, err := subtitle.ParseTimecode(to)
	if err != nil {
		return Transform{}, fmt.Errorf("invalid to reference: %w", err)
	}
	return DeriveTransform(fromTime, toTime)
}

func (t Transform) Ratio() float64 {
	return t.ratio
}

// Anchor returns the pair of times the transform keeps fixed.
func (t Transform) Anchor() (from, to time.Duration) {
	return t.from, t.to
}

// Map moves a single time value. Results are rounded half away from zero.
func (t Transform) Map(d time.Duration) (time.Duration, error) {
	out := math.Round(millis(t.to) + (millis(d)-millis(t.from))*t.ratio)
	if out < 0 {
		return 0, &subtitle.RangeError{Value: time.Duration(out) * time.Millisecond}
	}
	if out > maxMillis || math.IsNaN(out) {
		return 0, &subtitle.RangeError{Value: d, Overflow: true}
	}
	return time.Duration(out) * time.Millisecond, nil
}

// Deviation is how far the ratio is from the identity, as a fraction.
func (t Transform) Deviation() float64 {
	return math.Abs(t.ratio - 1)
}

func (t Transform) String() string {
	if t.from == 0 && t.to == 0 {
		return fmt.Sprintf("ratio %.7f", t.ratio)
	}
	return fmt.Sprintf(
		"ratio %.7f anchored at %s -> %s",
		t.ratio,
		subtitle.MustFormatTimecode(t.from),
		subtitle.MustFormatTimecode(t.to),
	)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func checkNonNegative(values ...time.Duration) error {
	for _, v := range values {
		if v < 0 {
			return &subtitle.RangeError{Value: v}
		}
	}
	return nil
}
