package converter

import (
	"bytes"
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/midiremap/pkg/remap"
)

// ErrDecode is returned when the input is not a readable MIDI file
var ErrDecode = errors.New("failed to parse MIDI")

// Document is a decoded MIDI file
type Document struct {
	// TicksPerBeat is the metrical resolution, 0 for SMPTE time formats
	TicksPerBeat uint16
	Tracks       []remap.Track

	smf   *smf.SMF
	dirty map[int]bool
}

// Decode parses MIDI data
func Decode(data []byte) (*Document, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	doc := &Document{
		smf:    s,
		Tracks: make([]remap.Track, 0, len(s.Tracks)),
		dirty:  map[int]bool{},
	}

	// Get ticks per quarter note from time format
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		doc.TicksPerBeat = mt.Resolution()
	}

	for _, track := range s.Tracks {
		doc.Tracks = append(doc.Tracks, decodeTrack(track))
	}
	return doc, nil
}

// SetTrack replaces track i. Only replaced tracks are re-encoded by Encode.
func (d *Document) SetTrack(i int, track remap.Track) error {
	if i < 0 || i >= len(d.Tracks) {
		return fmt.Errorf("%w: track %d out of range, file has %d tracks", remap.ErrUnsupportedShape, i, len(d.Tracks))
	}
	d.Tracks[i] = track
	d.dirty[i] = true
	return nil
}

// Remap remaps the track selected by cfg in place
func (d *Document) Remap(cfg remap.Config) error {
	if cfg.TrackIndex < 0 || cfg.TrackIndex >= len(d.Tracks) {
		return fmt.Errorf("%w: track %d out of range, file has %d tracks", remap.ErrUnsupportedShape, cfg.TrackIndex, len(d.Tracks))
	}
	track, err := remap.Remap(d.Tracks[cfg.TrackIndex], d.TicksPerBeat, cfg)
	if err != nil {
		return fmt.Errorf("track %d: %w", cfg.TrackIndex, err)
	}
	return d.SetTrack(cfg.TrackIndex, track)
}

// Encode writes the document as MIDI data. Tracks that were never replaced are
// written exactly as they were read.
func Encode(d *Document) ([]byte, error) {
	if d == nil || d.smf == nil {
		return nil, errors.New("nil document")
	}

	for i := range d.dirty {
		d.smf.Tracks[i] = encodeTrack(d.Tracks[i])
	}

	// Write to buffer
	var buf bytes.Buffer
	if _, err := d.smf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeTrack(track smf.Track) remap.Track {
	out := make(remap.Track, 0, len(track))
	for _, ev := range track {
		out = append(out, decodeEvent(ev.Delta, ev.Message))
	}
	return out
}

// decodeEvent maps a message to an event, parsing the bytes directly.
// Note On with velocity 0 is treated as Note Off.
func decodeEvent(delta uint32, msg smf.Message) remap.Event {
	ev := remap.Event{Kind: remap.KindOther, Delta: delta}

	// Tempo: FF 51 03 tt tt tt
	if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
		ev.Kind = remap.KindSetTempo
		ev.MicrosecondsPerBeat = uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
		return ev
	}

	// End of track: FF 2F 00
	if len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F {
		ev.Kind = remap.KindEndOfTrack
		return ev
	}

	if len(msg) >= 3 {
		status := msg[0]
		switch {
		case status >= 0x90 && status <= 0x9F && msg[2] > 0:
			ev.Kind = remap.KindNoteOn
		case status >= 0x80 && status <= 0x8F, status >= 0x90 && status <= 0x9F:
			ev.Kind = remap.KindNoteOff
		}
		if ev.Kind != remap.KindOther {
			ev.Channel = status & 0x0F
			ev.Note = msg[1]
			ev.Velocity = msg[2]
			return ev
		}
	}

	ev.Raw = append([]byte(nil), msg...)
	return ev
}

func encodeTrack(track remap.Track) smf.Track {
	var out smf.Track
	for _, ev := range track {
		if ev.Kind == remap.KindEndOfTrack {
			out.Close(ev.Delta)
			return out
		}
		out.Add(ev.Delta, encodeMessage(ev))
	}
	out.Close(0)
	return out
}

func encodeMessage(ev remap.Event) []byte {
	switch ev.Kind {
	case remap.KindNoteOn:
		return midi.NoteOn(ev.Channel, ev.Note, ev.Velocity)
	case remap.KindNoteOff:
		if ev.Velocity == 0 {
			return midi.NoteOff(ev.Channel, ev.Note)
		}
		return midi.NoteOffVelocity(ev.Channel, ev.Note, ev.Velocity)
	case remap.KindSetTempo:
		mpb := ev.MicrosecondsPerBeat
		return smf.Message([]byte{
			0xFF, 0x51, 0x03,
			byte(mpb >> 16),
			byte(mpb >> 8),
			byte(mpb),
		})
	case remap.KindEndOfTrack:
		return []byte{0xFF, 0x2F, 0x00}
	case remap.KindOther:
		return ev.Raw
	}
	panic(fmt.Sprintf("converter: unhandled event kind %v", ev.Kind))
}
