// Package config holds the options of a remap run and reads them from YAML files
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/james-see/midiremap/pkg/remap"
)

// ErrUsage marks invalid user input
var ErrUsage = errors.New("usage error")

// DefaultFile is the options file name picked up from the working directory
const DefaultFile = "midiremap.yml"

// Options are the user facing settings of a remap run. Pointer fields
// distinguish "not set" from an explicit zero so that Merge can layer them.
type Options struct {
	Input      string `yaml:"input,omitempty"`
	Output     string `yaml:"output,omitempty"`
	Track      *int   `yaml:"track,omitempty"`
	TempoFix   []int  `yaml:"tempo_fix,omitempty,flow"`
	BlankBeats *int   `yaml:"blank_beats,omitempty"`
	EventsFile string `yaml:"events_file,omitempty"`
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}

// ReadOptions decodes an options file from fsys
func ReadOptions(fsys fs.FS, optionsFile string) (*Options, error) {
	f, err := fsys.Open(optionsFile)
	if err != nil {
		return nil, fmt.Errorf("could not open %v: %w", optionsFile, err)
	}
	defer f.Close()
	var options Options
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&options)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not decode %v: %w", optionsFile, err)
	}
	return &options, nil
}

// WriteOptions encodes options to optionsFile
func WriteOptions(optionsFile string, options *Options) (err error) {
	f, err := os.Create(optionsFile)
	if err != nil {
		return fmt.Errorf("could not recreate %v: %w", optionsFile, err)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2) // Match yq.
	if err := enc.Encode(options); err != nil {
		return fmt.Errorf("could not encode %v: %w", optionsFile, err)
	}
	return enc.Close()
}

// RemapConfig validates the options and turns them into a remap.Config
func (o *Options) RemapConfig() (remap.Config, error) {
	var cfg remap.Config
	if o.Track != nil {
		cfg.TrackIndex = *o.Track
	}
	if o.BlankBeats != nil {
		cfg.BlankBeats = *o.BlankBeats
	}
	switch len(o.TempoFix) {
	case 0:
	case 2:
		cfg.TempoFix = true
		cfg.TempoSrc = o.TempoFix[0]
		cfg.TempoTar = o.TempoFix[1]
	default:
		return remap.Config{}, fmt.Errorf("%w: tempo fix needs exactly two values, got %d", ErrUsage, len(o.TempoFix))
	}
	if err := cfg.Validate(); err != nil {
		return remap.Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return cfg, nil
}
