// Package remap rewrites the event list of a single MIDI track: it collapses leading
// silence, rescales tempo, and replaces note-off events with synthesized ones
package remap

import (
	"errors"
	"fmt"
)

// DefaultNoteOffDelta is the delta given to a note-off synthesized at the end of a track
const DefaultNoteOffDelta = 240

// Largest values the MIDI file format can carry
const (
	MaxDelta               = 0x0FFFFFFF
	MaxMicrosecondsPerBeat = 0xFFFFFF
)

var (
	// ErrUnsupportedShape is returned when a track violates a precondition of Remap
	ErrUnsupportedShape = errors.New("unsupported input shape")
	// ErrInvalidConfig is returned for config values that can never be applied
	ErrInvalidConfig = errors.New("invalid remap config")
)

// Kind identifies the type of an Event
type Kind int

const (
	KindOther Kind = iota
	KindNoteOn
	KindNoteOff
	KindSetTempo
	KindEndOfTrack
)

// String returns the event type name used in event dumps
func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "noteOn"
	case KindNoteOff:
		return "noteOff"
	case KindSetTempo:
		return "setTempo"
	case KindEndOfTrack:
		return "endOfTrack"
	case KindOther:
		return "other"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is a single track event
type Event struct {
	Kind  Kind
	Delta uint32 // Ticks since the previous event

	Channel  uint8 // Note events only
	Note     uint8 // Note events only (0-127)
	Velocity uint8 // Note events only (0-127)

	MicrosecondsPerBeat uint32 // KindSetTempo only

	// Raw holds the encoded message for kinds that are passed through unchanged
	Raw []byte
}

// NoteOn creates a note-on event
func NoteOn(delta uint32, channel, note, velocity uint8) Event {
	return Event{Kind: KindNoteOn, Delta: delta, Channel: channel, Note: note, Velocity: velocity}
}

// NoteOff creates a note-off event
func NoteOff(delta uint32, channel, note, velocity uint8) Event {
	return Event{Kind: KindNoteOff, Delta: delta, Channel: channel, Note: note, Velocity: velocity}
}

// SetTempo creates a tempo event
func SetTempo(delta, microsecondsPerBeat uint32) Event {
	return Event{Kind: KindSetTempo, Delta: delta, MicrosecondsPerBeat: microsecondsPerBeat}
}

// Track is the ordered event list of one MIDI track
type Track []Event

// Ticks returns the sum of all deltas, i.e. the absolute tick of the last event
func (t Track) Ticks() uint64 {
	var sum uint64
	for _, ev := range t {
		sum += uint64(ev.Delta)
	}
	return sum
}

// Clone returns a deep copy of the track
func (t Track) Clone() Track {
	out := make(Track, len(t))
	for i, ev := range t {
		if ev.Raw != nil {
			ev.Raw = append([]byte(nil), ev.Raw...)
		}
		out[i] = ev
	}
	return out
}

// FirstNoteOn returns the index of the first note-on event, or -1
func (t Track) FirstNoteOn() int {
	for i, ev := range t {
		if ev.Kind == KindNoteOn {
			return i
		}
	}
	return -1
}

// Config controls a Remap run
type Config struct {
	TrackIndex int
	TempoFix   bool
	TempoSrc   int
	TempoTar   int
	BlankBeats int
}

// Validate checks the config values that do not depend on the input file
func (c Config) Validate() error {
	if c.TrackIndex < 0 {
		return fmt.Errorf("%w: track index must not be negative, got %d", ErrInvalidConfig, c.TrackIndex)
	}
	if c.BlankBeats < 0 {
		return fmt.Errorf("%w: blank beat count must not be negative, got %d", ErrInvalidConfig, c.BlankBeats)
	}
	if c.TempoFix && (c.TempoSrc <= 0 || c.TempoTar <= 0) {
		return fmt.Errorf("%w: tempo values must be positive, got %d and %d", ErrInvalidConfig, c.TempoSrc, c.TempoTar)
	}
	return nil
}
