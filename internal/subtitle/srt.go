package subtitle

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	timingLineRegex = regexp.MustCompile(`^(\s*)(\S+?)(\s*-->\s*)(\S+)(.*)$`)

	// shape of a timing line when it shows up inside a payload
	timingShapeRegex = regexp.MustCompile(`^\s*\d+:\d{2}:\d{2},\d{3}\s*-->`)
)

// ParseSRT splits SRT text into entries. Lines are split on LF only, so the CR
// of CRLF sources stays on its line and the document renders back unchanged.
//
// A block starts at a line containing "-->", optionally preceded by a
// sequence index line. Its payload runs until a blank line. Anything between
// blocks is kept as gap text of the preceding entry.
func ParseSRT(text string) (*Document, error) {
	lines := strings.Split(text, "\n")
	doc := &Document{}

	for i := 0; i < len(lines); {
		timing, ok := blockStart(lines, i)
		if !ok {
			if n := len(doc.entries); n > 0 {
				doc.entries[n-1].Gap = append(doc.entries[n-1].Gap, lines[i])
			} else {
				doc.header = append(doc.header, lines[i])
			}
			i++
			continue
		}

		entry := Entry{
			Position: len(doc.entries) + 1,
			Line:     timing + 1,
		}
		if timing > i {
			entry.Sequence = lines[i]
		}
		if err := entry.parseTiming(lines[timing]); err != nil {
			return nil, err
		}

		i = timing + 1
		for i < len(lines) && !isBlank(lines[i]) && !payloadEnds(lines, i) {
			entry.Text = append(entry.Text, lines[i])
			i++
		}

		doc.entries = append(doc.entries, entry)
	}

	return doc, nil
}

// blockStart reports whether an entry begins at lines[i] and where its
// timing line is.
func blockStart(lines []string, i int) (int, bool) {
	if strings.Contains(lines[i], "-->") {
		return i, true
	}
	if !isBlank(lines[i]) && i+1 < len(lines) &&
		strings.Contains(lines[i+1], "-->") {
		return i + 1, true
	}
	return 0, false
}

// payloadEnds catches entries that are missing their blank separator: a
// well-formed timing line, or an index followed by one, opens the next entry.
func payloadEnds(lines []string, i int) bool {
	if timingShapeRegex.MatchString(lines[i]) {
		return true
	}
	if i+1 >= len(lines) || !timingShapeRegex.MatchString(lines[i+1]) {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(lines[i]))
	return err == nil
}

func (e *Entry) parseTiming(line string) error {
	matches := timingLineRegex.FindStringSubmatch(line)
	if matches == nil {
		return &FormatError{
			Text:   strings.TrimSpace(line),
			Reason: "expected start --> end",
			Entry:  e.Position,
			Line:   e.Line,
		}
	}

	start, err := ParseTimecode(matches[2])
	if err != nil {
		return e.locate(err)
	}
	end, err := ParseTimecode(matches[4])
	if err != nil {
		return e.locate(err)
	}

	e.Lead = matches[1]
	e.Arrow = matches[3]
	e.Settings = matches[5]
	e.Start, e.origStart, e.rawStart = start, start, matches[2]
	e.End, e.origEnd, e.rawEnd = end, end, matches[4]
	return nil
}

func (e *Entry) locate(err error) error {
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		formatErr.Entry = e.Position
		formatErr.Line = e.Line
	}
	return err
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
