package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dimchansky/utfbom"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// how a subtitle file was stored on disk; the zero value is plain UTF-8
type Encoding struct {
	Name string
	BOM  bool

	bom   []byte
	codec encoding.Encoding // nil for UTF-8
}

// detector names that htmlindex does not know as labels
var charsetAliases = map[string]string{
	"gb-18030": "gb18030",
}

// Decode converts raw subtitle bytes to UTF-8 text. A byte order mark selects
// the encoding directly; otherwise valid UTF-8 is taken as is and anything
// else goes through charset detection.
func Decode(data []byte) (string, Encoding, error) {
	reader, bomEnc := utfbom.Skip(bytes.NewReader(data))
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", Encoding{}, fmt.Errorf("failed to read subtitle data: %w", err)
	}
	bom := slices.Clone(data[:len(data)-len(body)])

	var enc Encoding
	switch bomEnc {
	case utfbom.UTF8:
		enc = Encoding{Name: "UTF-8"}
	case utfbom.UTF16LittleEndian:
		enc = Encoding{Name: "UTF-16LE", codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
	case utfbom.UTF16BigEndian:
		enc = Encoding{Name: "UTF-16BE", codec: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}
	case utfbom.UTF32LittleEndian:
		enc = Encoding{Name: "UTF-32LE", codec: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)}
	case utfbom.UTF32BigEndian:
		enc = Encoding{Name: "UTF-32BE", codec: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)}
	default:
		enc, err = detect(body)
		if err != nil {
			return "", Encoding{}, err
		}
	}
	if len(bom) > 0 {
		enc.BOM = true
		enc.bom = bom
	}

	if enc.codec == nil {
		if !utf8.Valid(body) {
			return "", Encoding{}, fmt.Errorf("%w: invalid UTF-8", ErrUnsupportedEncoding)
		}
		return string(body), enc, nil
	}

	text, err := enc.codec.NewDecoder().Bytes(body)
	if err != nil {
		return "", Encoding{}, fmt.Errorf("failed to decode %s: %w", enc.Name, err)
	}
	return string(text), enc, nil
}

func detect(body []byte) (Encoding, error) {
	if enc, ok := sniffUTF16(body); ok {
		return enc, nil
	}
	if utf8.Valid(body) {
		return Encoding{Name: "UTF-8"}, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil {
		return Encoding{}, fmt.Errorf("%w: %v", ErrUnsupportedEncoding, err)
	}

	label := strings.ToLower(result.Charset)
	if alias, ok := charsetAliases[label]; ok {
		label = alias
	}
	codec, err := htmlindex.Get(label)
	if err != nil || label == "utf-8" {
		return Encoding{}, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, result.Charset)
	}
	return Encoding{Name: result.Charset, codec: codec}, nil
}

// sniffUTF16 recognises BOM-less UTF-16 by where its NUL bytes fall. Mostly
// ASCII UTF-16 text is also valid UTF-8, so this runs before the UTF-8 check.
func sniffUTF16(body []byte) (Encoding, bool) {
	if len(body) < 4 || len(body)%2 != 0 {
		return Encoding{}, false
	}

	var evenNul, oddNul int
	for i, b := range body {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			evenNul++
		} else {
			oddNul++
		}
	}

	units := len(body) / 2
	switch {
	case oddNul*2 > units && evenNul*8 < units:
		return Encoding{
			Name:  "UTF-16LE",
			codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
		}, true
	case evenNul*2 > units && oddNul*8 < units:
		return Encoding{
			Name:  "UTF-16BE",
			codec: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
		}, true
	}
	return Encoding{}, false
}

// Encode converts UTF-8 text back into enc, restoring its byte order mark.
func Encode(text string, enc Encoding) ([]byte, error) {
	body := []byte(text)
	if enc.codec != nil {
		encoded, err := enc.codec.NewEncoder().Bytes(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode as %s: %w", enc.Name, err)
		}
		body = encoded
	}
	return append(slices.Clone(enc.bom), body...), nil
}
