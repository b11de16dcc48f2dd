package resync

import (
	"fmt"
	"time"

	"github.com/mgpai22/subsync/internal/subtitle"
)

// DegenerateReferenceError reports reference values that do not define a
// usable ratio, most commonly a "from" reference at 00:00:00,000.
type DegenerateReferenceError struct {
	From   time.Duration
	To     time.Duration
	Reason string
}

func (e *DegenerateReferenceError) Error() string {
	if e.From == 0 && e.To == 0 {
		return "degenerate reference: " + e.Reason
	}
	return fmt.Sprintf(
		"degenerate reference %s -> %s: %s",
		formatOrRaw(e.From),
		formatOrRaw(e.To),
		e.Reason,
	)
}

func formatOrRaw(d time.Duration) string {
	if s, err := subtitle.FormatTimecode(d); err == nil {
		return s
	}
	return d.String()
}
