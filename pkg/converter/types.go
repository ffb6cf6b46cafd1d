// Package converter decodes Standard MIDI Files, remaps one track and encodes the result
package converter

import (
	"github.com/charmbracelet/log"

	"github.com/james-see/midiremap/pkg/remap"
)

// RemapResult holds the result of a remap
type RemapResult struct {
	Data       []byte      // Encoded output file
	Filename   string      // Output path, empty if nothing was written
	TrackIndex int         // Index of the remapped track
	Track      remap.Track // Remapped track
	EventsIn   int         // Event count of the track before remapping
}

// Converter runs the decode, remap and encode pipeline
type Converter struct {
	logger *log.Logger
}

// New creates a new Converter. A nil logger selects the default logger.
func New(logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.Default()
	}
	return &Converter{logger: logger}
}

// Logger returns the logger the converter reports to
func (c *Converter) Logger() *log.Logger {
	return c.logger
}

// SetLogger sets the logger
func (c *Converter) SetLogger(logger *log.Logger) {
	c.logger = logger
}
