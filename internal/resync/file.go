package resync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mgpai22/subsync/internal/subtitle"
)

// DefaultOutputPrefix names the output of "movie.srt" as "new-movie.srt".
const DefaultOutputPrefix = "new-"

// ErrOutputExists is returned when the output file is already present and
// overwriting was not requested.
var ErrOutputExists = errors.New("output file already exists")

// FileOptions controls ResyncFile.
type FileOptions struct {
	Output string // derived from the input and Prefix when empty
	Prefix string
	Force  bool // overwrite an existing output
	DryRun bool // parse and transform without writing
}

// FileResult describes one processed file.
type FileResult struct {
	Input   string
	Output  string
	Ratio   float64
	Entries int
	Elapsed time.Duration
	Written bool
}

// OutputPath places prefix in front of the base name of input.
func OutputPath(input, prefix string) string {
	if prefix == "" {
		prefix = DefaultOutputPrefix
	}
	return filepath.Join(filepath.Dir(input), prefix+filepath.Base(input))
}

// ResyncFile reads input, applies t and writes the result in the input's
// encoding. Nothing is written unless the whole file transformed.
func ResyncFile(input string, t Transform, opts FileOptions) (*FileResult, error) {
	started := time.Now()

	output := opts.Output
	if output == "" {
		output = OutputPath(input, opts.Prefix)
	}
	if !opts.DryRun && !opts.Force {
		if _, err := os.Stat(output); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, output)
		}
	}

	file, err := subtitle.Open(input)
	if err != nil {
		return nil, err
	}

	doc, err := t.Apply(file.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to resync %s: %w", input, err)
	}

	result := &FileResult{
		Input:   input,
		Output:  output,
		Ratio:   t.Ratio(),
		Entries: doc.Len(),
	}

	if !opts.DryRun {
		out := &subtitle.File{Path: output, Encoding: file.Encoding, Document: doc}
		if err := out.Write(output); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", output, err)
		}
		result.Written = true
	}

	result.Elapsed = time.Since(started)
	return result, nil
}
