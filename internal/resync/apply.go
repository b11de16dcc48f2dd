package resync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/subsync/internal/subtitle"
)

// ErrNoEntries is returned for input that has text but no subtitle entries,
// which usually means it was decoded with the wrong encoding.
var ErrNoEntries = errors.New("no subtitle entries found")

// Apply maps the start and end of every entry and returns a new document.
// Entry order, sequence lines, payload and spacing are carried over
// unchanged. Either every entry is mapped or an error is returned.
func (t Transform) Apply(doc *subtitle.Document) (*subtitle.Document, error) {
	if doc.Len() == 0 && hasText(doc.Header()) {
		return nil, ErrNoEntries
	}

	entries := doc.Entries()
	for i := range entries {
		e := &entries[i]

		start, err := t.Map(e.Start)
		if err != nil {
			return nil, entryError(err, e)
		}
		end, err := t.Map(e.End)
		if err != nil {
			return nil, entryError(err, e)
		}
		e.Start, e.End = start, end
	}
	return doc.WithEntries(entries), nil
}

// ApplyText parses SRT text, applies t and renders the result. It returns the
// number of entries rewritten.
func (t Transform) ApplyText(text string) (string, int, error) {
	doc, err := subtitle.ParseSRT(text)
	if err != nil {
		return "", 0, err
	}
	out, err := t.Apply(doc)
	if err != nil {
		return "", 0, err
	}
	rendered, err := out.Render()
	if err != nil {
		return "", 0, err
	}
	return rendered, out.Len(), nil
}

func entryError(err error, e *subtitle.Entry) error {
	var rangeErr *subtitle.RangeError
	if errors.As(err, &rangeErr) {
		rangeErr.Entry = e.Position
		return rangeErr
	}
	return fmt.Errorf("entry %d (line %d): %w", e.Position, e.Line, err)
}

func hasText(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}
