package resync

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/subsync/internal/subtitle"
)

func mustParse(t *testing.T, s string) time.Duration {
	t.Helper()
	d, err := subtitle.ParseTimecode(s)
	if err != nil {
		t.Fatalf("ParseTimecode(%q) returned error: %v", s, err)
	}
	return d
}

func TestDeriveTransformRatio(t *testing.T) {
	tr, err := ParseReference("00:40:50,652", "00:43:50,200")
	if err != nil {
		t.Fatalf("ParseReference returned error: %v", err)
	}
	if math.Abs(tr.Ratio()-1.0732654) > 1e-7 {
		t.Errorf("Ratio() = %v, want ~1.0732654", tr.Ratio())
	}

	from, to := tr.Anchor()
	if from != 0 || to != 0 {
		t.Errorf("Anchor() = %v, %v, want zero", from, to)
	}
}

func TestDeriveTransformIdentity(t *testing.T) {
	for _, s := range []string{"00:00:00,001", "00:40:50,652", "10:00:00,000"} {
		d := mustParse(t, s)
		tr, err := DeriveTransform(d, d)
		if err != nil {
			t.Fatalf("DeriveTransform(%s, %s) returned error: %v", s, s, err)
		}
		if tr.Ratio() != 1 {
			t.Errorf("DeriveTransform(%s, %s).Ratio() = %v, want 1", s, s, tr.Ratio())
		}
	}
}

func TestDeriveTransformRejectsZeroReference(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Duration
	}{
		{"zero from", 0, time.Minute},
		{"zero both", 0, 0},
		{"zero to", time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveTransform(tt.from, tt.to)
			var degenerate *DegenerateReferenceError
			if !errors.As(err, &degenerate) {
				t.Errorf("DeriveTransform error = %v, want *DegenerateReferenceError", err)
			}
		})
	}
}

func TestDeriveTransformRejectsNegative(t *testing.T) {
	_, err := DeriveTransform(-time.Second, time.Second)
	var rangeErr *subtitle.RangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("DeriveTransform error = %v, want *subtitle.RangeError", err)
	}
}

func TestParseReferenceRejectsMalformed(t *testing.T) {
	tests := []struct{ from, to string }{
		{"00:60:00,000", "00:10:00,000"},
		{"00:10:00,000", "00:00:00,1000"},
		{"10:00", "00:10:00,000"},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_"+tt.to, func(t *testing.T) {
			_, err := ParseReference(tt.from, tt.to)
			var formatErr *subtitle.FormatError
			if !errors.As(err, &formatErr) {
				t.Errorf("ParseReference error = %v, want *subtitle.FormatError", err)
			}
		})
	}
}

func TestParseReferenceNamesReference(t *testing.T) {
	_, err := ParseReference("00:10:00,000", "10:30")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.HasPrefix(got, "invalid to reference: ") {
		t.Errorf("error = %q, want it to name the to reference", got)
	}
}

func TestMapRoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		ratio float64
		in    time.Duration
		want  time.Duration
	}{
		{1.5, 1 * time.Millisecond, 2 * time.Millisecond},
		{1.5, 3 * time.Millisecond, 5 * time.Millisecond},
		{0.5, 1 * time.Millisecond, 1 * time.Millisecond},
		{1.25, 2 * time.Millisecond, 3 * time.Millisecond},
		{1.2, 4 * time.Millisecond, 5 * time.Millisecond},
		{0.999, 1000 * time.Millisecond, 999 * time.Millisecond},
	}

	for _, tt := range tests {
		got, err := Transform{ratio: tt.ratio}.Map(tt.in)
		if err != nil {
			t.Fatalf("Map(%v) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ratio %v: Map(%v) = %v, want %v", tt.ratio, tt.in, got, tt.want)
		}
	}
}

func TestMapScalesLinearly(t *testing.T) {
	tr, err := ParseReference("00:40:50,652", "00:43:50,200")
	if err != nil {
		t.Fatalf("ParseReference returned error: %v", err)
	}

	for ms := int64(0); ms < 10_000_000; ms += 7919 {
		in := time.Duration(ms) * time.Millisecond
		got, err := tr.Map(in)
		if err != nil {
			t.Fatalf("Map(%v) returned error: %v", in, err)
		}
		want := time.Duration(math.Round(float64(ms)*tr.Ratio())) * time.Millisecond
		if got != want {
			t.Fatalf("Map(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestMapReferenceLandsOnTarget(t *testing.T) {
	from := mustParse(t, "00:40:50,652")
	to := mustParse(t, "00:43:50,200")
	tr, err := DeriveTransform(from, to)
	if err != nil {
		t.Fatalf("DeriveTransform returned error: %v", err)
	}

	got, err := tr.Map(from)
	if err != nil {
		t.Fatalf("Map returned error: %v", err)
	}
	if got != to {
		t.Errorf("Map(from) = %v, want %v", got, to)
	}
}

func TestDeriveTwoPoint(t *testing.T) {
	// 2s late at the start, drifting a further 1s per 1000s
	tr, err := DeriveTwoPoint(
		mustParse(t, "00:00:10,000"), mustParse(t, "00:00:12,000"),
		mustParse(t, "00:16:50,000"), mustParse(t, "00:16:53,000"),
	)
	if err != nil {
		t.Fatalf("DeriveTwoPoint returned error: %v", err)
	}
	if math.Abs(tr.Ratio()-1.001) > 1e-12 {
		t.Errorf("Ratio() = %v, want 1.001", tr.Ratio())
	}

	tests := []struct{ in, want string }{
		{"00:00:10,000", "00:00:12,000"},
		{"00:16:50,000", "00:16:53,000"},
		{"00:00:00,000", "00:00:01,990"},
	}
	for _, tt := range tests {
		got, err := tr.Map(mustParse(t, tt.in))
		if err != nil {
			t.Fatalf("Map(%s) returned error: %v", tt.in, err)
		}
		if s := subtitle.MustFormatTimecode(got); s != tt.want {
			t.Errorf("Map(%s) = %s, want %s", tt.in, s, tt.want)
		}
	}
}

func TestDeriveTwoPointRejectsDegenerate(t *testing.T) {
	tests := []struct {
		name                   string
		from1, to1, from2, to2 time.Duration
	}{
		{"same from", time.Second, time.Second, time.Second, 2 * time.Second},
		{"reversed", time.Second, 5 * time.Second, 10 * time.Second, 2 * time.Second},
		{"collapsed", time.Second, 5 * time.Second, 10 * time.Second, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveTwoPoint(tt.from1, tt.to1, tt.from2, tt.to2)
			var degenerate *DegenerateReferenceError
			if !errors.As(err, &degenerate) {
				t.Errorf("DeriveTwoPoint error = %v, want *DegenerateReferenceError", err)
			}
		})
	}
}

func TestMapBeforeAnchorCanGoNegative(t *testing.T) {
	tr, err := DeriveTwoPoint(10*time.Second, 5*time.Second, 20*time.Second, 15*time.Second)
	if err != nil {
		t.Fatalf("DeriveTwoPoint returned error: %v", err)
	}

	_, err = tr.Map(time.Second)
	var rangeErr *subtitle.RangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("Map error = %v, want *subtitle.RangeError", err)
	}
}

func TestMapOverflowIsRangeError(t *testing.T) {
	tr, err := FromFrameRates(3, 2)
	if err != nil {
		t.Fatalf("FromFrameRates returned error: %v", err)
	}

	huge := 2000000 * time.Hour
	_, err = tr.Map(huge)
	var rangeErr *subtitle.RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Map error = %v, want *subtitle.RangeError", err)
	}
	if !rangeErr.Overflow || rangeErr.Value != huge {
		t.Errorf("RangeError = %+v, want overflow of %s", rangeErr, huge)
	}

	doc, err := subtitle.ParseSRT("1\n2000000:00:00,000 --> 2000000:00:01,000\nLate.\n")
	if err != nil {
		t.Fatalf("ParseSRT returned error: %v", err)
	}
	_, err = tr.Apply(doc)
	if !errors.As(err, &rangeErr) || rangeErr.Entry != 1 || !rangeErr.Overflow {
		t.Errorf("Apply error = %v, want overflow RangeError for entry 1", err)
	}
}

func TestFromFrameRates(t *testing.T) {
	tr, err := FromFrameRates(25, 23.976)
	if err != nil {
		t.Fatalf("FromFrameRates returned error: %v", err)
	}
	got, err := tr.Map(time.Hour)
	if err != nil {
		t.Fatalf("Map returned error: %v", err)
	}
	if s := subtitle.MustFormatTimecode(got); s != "01:02:33,754" {
		t.Errorf("Map(1h) = %s, want 01:02:33,754", s)
	}

	for _, fps := range []float64{0, -25, math.NaN(), math.Inf(1)} {
		_, err := FromFrameRates(fps, 25)
		var degenerate *DegenerateReferenceError
		if !errors.As(err, &degenerate) {
			t.Errorf("FromFrameRates(%v, 25) error = %v, want *DegenerateReferenceError", fps, err)
		}
	}
}
