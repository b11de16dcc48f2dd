package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// parsed subtitle file together with the encoding it was read in
type File struct {
	Path     string
	Encoding Encoding
	Document *Document
}

func Open(path string) (*File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".srt" {
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}

	text, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	doc, err := ParseSRT(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &File{Path: path, Encoding: enc, Document: doc}, nil
}

// Write renders the document in the file's encoding and replaces path
// atomically, so a failed write never leaves a partial file behind.
func (f *File) Write(path string) error {
	text, err := f.Document.Render()
	if err != nil {
		return err
	}
	data, err := Encode(text, f.Encoding)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0644, renameio.WithStaticPermissions(0644)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
