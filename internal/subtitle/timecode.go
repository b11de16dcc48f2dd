package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var timecodeRegex = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2}),(\d{3})$`)

// largest hour count whose millisecond total still fits a time.Duration
var maxHours = int64(math.MaxInt64/int64(time.Hour)) - 1

// ParseTimecode parses HH:MM:SS,mmm. Hours take one or more digits, minutes
// and seconds exactly two, milliseconds exactly three.
func ParseTimecode(text string) (time.Duration, error) {
	matches := timecodeRegex.FindStringSubmatch(text)
	if matches == nil {
		return 0, &FormatError{Text: text, Reason: "expected HH:MM:SS,mmm"}
	}

	h, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil || h > maxHours {
		return 0, &FormatError{Text: text, Reason: "hours out of range"}
	}
	// fixed-width ASCII digits, Atoi cannot fail past the regex
	m, _ := strconv.Atoi(matches[2])
	s, _ := strconv.Atoi(matches[3])
	ms, _ := strconv.Atoi(matches[4])

	if m >= 60 {
		return 0, &FormatError{Text: text, Reason: "minutes out of range"}
	}
	if s >= 60 {
		return 0, &FormatError{Text: text, Reason: "seconds out of range"}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// FormatTimecode renders d as HH:MM:SS,mmm with at least two hour digits.
// Anything below a millisecond is dropped.
func FormatTimecode(d time.Duration) (string, error) {
	if d < 0 {
		return "", &RangeError{Value: d}
	}

	total := int64(d / time.Millisecond)
	hours := total / 3600000
	minutes := total / 60000 % 60
	seconds := total / 1000 % 60
	millis := total % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis), nil
}

// MustFormatTimecode is FormatTimecode for values known to be non-negative.
func MustFormatTimecode(d time.Duration) string {
	s, err := FormatTimecode(d)
	if err != nil {
		panic(err)
	}
	return s
}
