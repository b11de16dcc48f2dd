package subtitle

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDecodePlainUTF8(t *testing.T) {
	data := []byte(sampleSRT)

	text, enc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if text != sampleSRT {
		t.Errorf("Decode text = %q, want %q", text, sampleSRT)
	}
	if enc.BOM {
		t.Error("expected no BOM")
	}
	if enc.Name != "UTF-8" {
		t.Errorf("Name = %q, want UTF-8", enc.Name)
	}

	out, err := Encode(text, enc)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Encode = %q, want %q", out, data)
	}
}

func TestDecodeKeepsUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, sampleSRT...)

	text, enc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if strings.HasPrefix(text, "\ufeff") {
		t.Error("BOM was not stripped from text")
	}
	if !enc.BOM {
		t.Error("expected BOM to be recorded")
	}

	out, err := Encode(text, enc)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Encode did not restore the BOM: %q", out[:8])
	}
}

func TestDecodeUTF16WithBOM(t *testing.T) {
	data, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).
		NewEncoder().
		Bytes([]byte(sampleSRT))
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}

	text, enc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if text != sampleSRT {
		t.Errorf("Decode text = %q, want %q", text, sampleSRT)
	}
	if enc.Name != "UTF-16LE" || !enc.BOM {
		t.Errorf("encoding = %+v, want UTF-16LE with BOM", enc)
	}

	out, err := Encode(text, enc)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("UTF-16 round trip changed the bytes")
	}
}

func TestDecodeUTF16WithoutBOM(t *testing.T) {
	tests := []struct {
		name       string
		endianness unicode.Endianness
		want       string
	}{
		{"little endian", unicode.LittleEndian, "UTF-16LE"},
		{"big endian", unicode.BigEndian, "UTF-16BE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := unicode.UTF16(tt.endianness, unicode.IgnoreBOM).
				NewEncoder().
				Bytes([]byte(sampleSRT))
			if err != nil {
				t.Fatalf("failed to build fixture: %v", err)
			}

			text, enc, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if enc.Name != tt.want || enc.BOM {
				t.Errorf("encoding = %+v, want %s without BOM", enc, tt.want)
			}
			if text != sampleSRT {
				t.Errorf("Decode text = %q, want %q", text, sampleSRT)
			}

			doc, err := ParseSRT(text)
			if err != nil {
				t.Fatalf("ParseSRT returned error: %v", err)
			}
			if doc.Len() != 3 {
				t.Errorf("got %d entries, want 3", doc.Len())
			}

			out, err := Encode(text, enc)
			if err != nil {
				t.Fatalf("Encode returned error: %v", err)
			}
			if !bytes.Equal(out, data) {
				t.Error("BOM-less UTF-16 round trip changed the bytes")
			}
		})
	}
}

func TestDecodeLegacyCharset(t *testing.T) {
	source := `1
00:00:01,000 --> 00:00:04,000
Le café était très chaud, et nous étions déjà en retard pour la répétition.

2
00:00:05,000 --> 00:00:08,000
Où est passée la clé ? Je l'ai laissée près de la fenêtre, à côté du téléphone.

3
00:00:09,000 --> 00:00:12,000
Ça ne fait rien, nous irons à la bibliothèque après le déjeuner.
`
	data, err := charmap.Windows1252.NewEncoder().Bytes([]byte(source))
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	if utf8.Valid(data) {
		t.Fatal("fixture should not be valid UTF-8")
	}

	text, enc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !utf8.ValidString(text) {
		t.Error("decoded text is not valid UTF-8")
	}
	if !strings.Contains(text, "café") {
		t.Errorf("decoded text lost accents: %q", text)
	}

	out, err := Encode(text, enc)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("round trip through %s changed the bytes", enc.Name)
	}
}

func TestDecodeRejectsInvalidUTF8AfterBOM(t *testing.T) {
	data := []byte{0xEF, 0xBB, 0xBF, 'a', 0xFF, 0xFE, 'b'}

	_, _, err := Decode(data)
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("Decode error = %v, want ErrUnsupportedEncoding", err)
	}
}
