package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/midiremap/pkg/remap"
)

// ErrUnsupportedFormat is returned for files that are not MIDI files
var ErrUnsupportedFormat = errors.New("unsupported file format")

// RemapSuffix is appended to the input base name to build the default output name
const RemapSuffix = "_remap.mid"

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	// Check for MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}
	return FormatUnknown
}

// SupportedExtensions returns the accepted input file extensions
func SupportedExtensions() []string {
	return []string{".mid", ".midi"}
}

// OutputPath returns the default output path for input: the extension is replaced
// by RemapSuffix
func OutputPath(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + RemapSuffix
}

// CheckInputPath validates the input path before anything is read
func CheckInputPath(input string) error {
	if input == "" {
		return fmt.Errorf("%w: empty filename, please specify a MIDI file", ErrUnsupportedFormat)
	}
	if DetectFormat(input) != FormatMIDI {
		return fmt.Errorf("%w: %s is not a MIDI file, expected one of %s", ErrUnsupportedFormat, input, strings.Join(SupportedExtensions(), ", "))
	}
	return nil
}

// Remap decodes MIDI data, remaps the track selected by cfg and encodes the result
func (c *Converter) Remap(data []byte, cfg remap.Config) (*RemapResult, error) {
	if DetectFormatFromContent(data) != FormatMIDI {
		return nil, fmt.Errorf("%w: missing MThd header", ErrDecode)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("decoded MIDI", "tracks", len(doc.Tracks), "ticksPerBeat", doc.TicksPerBeat)

	var eventsIn int
	if cfg.TrackIndex >= 0 && cfg.TrackIndex < len(doc.Tracks) {
		eventsIn = len(doc.Tracks[cfg.TrackIndex])
	}

	if err := doc.Remap(cfg); err != nil {
		return nil, err
	}

	out, err := Encode(doc)
	if err != nil {
		return nil, err
	}

	track := doc.Tracks[cfg.TrackIndex]
	c.logger.Debug("remapped track",
		"track", cfg.TrackIndex,
		"eventsIn", eventsIn,
		"eventsOut", len(track),
		"tempoFix", cfg.TempoFix,
		"blankBeats", cfg.BlankBeats,
	)

	return &RemapResult{
		Data:       out,
		TrackIndex: cfg.TrackIndex,
		Track:      track,
		EventsIn:   eventsIn,
	}, nil
}

// RemapFile remaps inputPath and writes the result to outputPath. An empty
// outputPath selects OutputPath(inputPath). Nothing is written if any step fails.
func (c *Converter) RemapFile(inputPath, outputPath string, cfg remap.Config) (*RemapResult, error) {
	return c.RemapFileWithEvents(inputPath, outputPath, "", cfg)
}

// RemapFileWithEvents is RemapFile that also writes the event table of the
// remapped track to eventsPath when it is not empty. Either every output file
// is written or none is.
func (c *Converter) RemapFileWithEvents(inputPath, outputPath, eventsPath string, cfg remap.Config) (*RemapResult, error) {
	if outputPath == "" {
		outputPath = OutputPath(inputPath)
	}

	result, err := c.remapPath(inputPath, cfg)
	if err != nil {
		return nil, err
	}

	var events bytes.Buffer
	if eventsPath != "" {
		if err := DumpEvents(&events, result.Track); err != nil {
			return nil, err
		}
	}

	// Write output
	if err := os.WriteFile(outputPath, result.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	if eventsPath != "" {
		if err := os.WriteFile(eventsPath, events.Bytes(), 0644); err != nil {
			if rmErr := os.Remove(outputPath); rmErr != nil {
				c.logger.Warn("could not remove output file", "file", outputPath, "err", rmErr)
			}
			return nil, fmt.Errorf("failed to write events file: %w", err)
		}
		c.logger.Debug("wrote event table", "file", eventsPath)
	}
	result.Filename = outputPath

	c.logger.Info("wrote remapped MIDI", "input", inputPath, "output", outputPath)
	return result, nil
}

// remapPath checks and reads inputPath and remaps its content without writing anything
func (c *Converter) remapPath(inputPath string, cfg remap.Config) (*RemapResult, error) {
	if err := CheckInputPath(inputPath); err != nil {
		return nil, err
	}

	// Read input
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	result, err := c.Remap(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inputPath, err)
	}
	return result, nil
}
