package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest lists subtitle files to resync in one run.
type Manifest struct {
	OutputPrefix string `yaml:"output_prefix"`
	Jobs         []Job  `yaml:"jobs"`
}

// Job is one file with its own reference pair.
type Job struct {
	Input  string `yaml:"input"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Output string `yaml:"output,omitempty"`
}

// LoadManifest reads a manifest and resolves relative paths against its
// directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if strings.ContainsAny(m.OutputPrefix, `/\`) {
		return nil, fmt.Errorf(
			"manifest %s: output_prefix %q must not contain a path separator",
			path,
			m.OutputPrefix,
		)
	}

	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s has no jobs", path)
	}

	dir := filepath.Dir(path)
	for i := range m.Jobs {
		job := &m.Jobs[i]
		if job.Input == "" || job.From == "" || job.To == "" {
			return nil, fmt.Errorf(
				"manifest job %d: input, from and to are required",
				i+1,
			)
		}
		job.Input = resolve(dir, job.Input)
		if job.Output != "" {
			job.Output = resolve(dir, job.Output)
		}
	}

	return &m, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
