package subtitle

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// represents single subtitle entry
//
// Only Start and End are interpreted. Every other field holds the raw source
// text so a document renders back byte for byte.
type Entry struct {
	Position int // 1-based ordinal of the entry in its document
	Line     int // 1-based source line of the timing line

	Sequence string // sequence index line as written, "" when absent
	Start    time.Duration
	End      time.Duration
	Lead     string   // whitespace before the start timecode
	Arrow    string   // separator between the timecodes, usually " --> "
	Settings string   // anything after the end timecode, including a CR
	Text     []string // payload lines
	Gap      []string // lines after the entry up to the next one

	// timecodes as read, reused when the value did not change
	rawStart, rawEnd   string
	origStart, origEnd time.Duration
}

// ordered sequence of entries plus the text around them
type Document struct {
	header  []string
	entries []Entry
}

// NewDocument builds a document from entries and the raw lines preceding the
// first one. Both slices are copied.
func NewDocument(header []string, entries []Entry) *Document {
	d := &Document{header: slices.Clone(header)}
	d.entries = make([]Entry, len(entries))
	for i, e := range entries {
		d.entries[i] = e.clone()
	}
	return d
}

// returns a copy of the entries; mutating it does not touch the document
func (d *Document) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.clone()
	}
	return out
}

func (d *Document) Len() int {
	return len(d.entries)
}

// raw lines before the first entry
func (d *Document) Header() []string {
	return slices.Clone(d.header)
}

// WithEntries returns a new document that keeps the header of d.
func (d *Document) WithEntries(entries []Entry) *Document {
	return NewDocument(d.header, entries)
}

// Render serializes the document. Only timing lines whose values changed are
// rewritten; all other text is emitted exactly as parsed.
func (d *Document) Render() (string, error) {
	lines := slices.Clone(d.header)
	for _, e := range d.entries {
		if e.Sequence != "" {
			lines = append(lines, e.Sequence)
		}
		timing, err := e.timingLine()
		if err != nil {
			return "", err
		}
		lines = append(lines, timing)
		lines = append(lines, e.Text...)
		lines = append(lines, e.Gap...)
	}
	return strings.Join(lines, "\n"), nil
}

func (e Entry) timingLine() (string, error) {
	start, err := e.timecode(e.Start, e.origStart, e.rawStart)
	if err != nil {
		return "", err
	}
	end, err := e.timecode(e.End, e.origEnd, e.rawEnd)
	if err != nil {
		return "", err
	}
	arrow := e.Arrow
	if arrow == "" {
		arrow = " --> "
	}
	return e.Lead + start + arrow + end + e.Settings, nil
}

func (e Entry) timecode(v, orig time.Duration, raw string) (string, error) {
	if raw != "" && v == orig {
		return raw, nil
	}
	s, err := FormatTimecode(v)
	if err != nil {
		var rangeErr *RangeError
		if errors.As(err, &rangeErr) {
			rangeErr.Entry = e.Position
		}
		return "", err
	}
	return s, nil
}

func (e Entry) clone() Entry {
	e.Text = slices.Clone(e.Text)
	e.Gap = slices.Clone(e.Gap)
	return e
}
