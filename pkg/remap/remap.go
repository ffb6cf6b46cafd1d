package remap

import (
	"fmt"
	"math"
)

// Remap returns a transformed copy of track. ticksPerBeat is the file's metrical
// resolution and may be 0 for SMPTE files when no blank beats are requested.
// The input track is never modified.
func Remap(track Track, ticksPerBeat uint16, cfg Config) (Track, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if track.FirstNoteOn() < 0 {
		return nil, fmt.Errorf("%w: track has no note-on event", ErrUnsupportedShape)
	}
	if cfg.BlankBeats > 0 && ticksPerBeat == 0 {
		return nil, fmt.Errorf("%w: blank beats need a ticks-per-beat time format", ErrUnsupportedShape)
	}

	out := track.Clone()
	normalizeLeading(out, ticksPerBeat, cfg)
	if cfg.TempoFix {
		rescaleDeltas(out, cfg.TempoTar, cfg.TempoSrc)
	}
	out = stripNoteOffs(out)
	out = resynthesizeNoteOffs(out)

	if err := checkRange(out); err != nil {
		return nil, err
	}
	return out, nil
}

// scale returns round(v * num / den)
func scale(v uint32, num, den int) uint32 {
	r := math.Round(float64(v) * float64(num) / float64(den))
	if r > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(r)
}

// normalizeLeading collapses the silence before the first note-on, applies the tempo
// fix to leading tempo events and places the optional blank beats.
// The track must contain a note-on.
func normalizeLeading(track Track, ticksPerBeat uint16, cfg Config) {
	first := track.FirstNoteOn()
	track[0].Delta = 0
	blankSet := false
	for i := 0; i < first; i++ {
		next := &track[i+1]
		next.Delta = 0
		if track[i].Kind != KindSetTempo {
			continue
		}
		if cfg.TempoFix {
			track[i].MicrosecondsPerBeat = scale(track[i].MicrosecondsPerBeat, cfg.TempoSrc, cfg.TempoTar)
		}
		if cfg.BlankBeats > 0 && !blankSet {
			blank := uint64(ticksPerBeat) * uint64(cfg.BlankBeats)
			next.Delta = uint32(min(blank, math.MaxUint32))
			blankSet = true
		}
	}
}

// rescaleDeltas multiplies every delta by num/den, rounding each one independently.
func rescaleDeltas(track Track, num, den int) {
	for i := range track {
		track[i].Delta = scale(track[i].Delta, num, den)
	}
}

// stripNoteOffs drops all note-off events. The delta of a dropped event moves to the
// next surviving event; a trailing note-off's delta is lost. Sums saturate at
// MaxUint32 so checkRange rejects them instead of seeing a wrapped value.
func stripNoteOffs(track Track) Track {
	out := make(Track, 0, len(track))
	var carry uint64
	for _, ev := range track {
		switch ev.Kind {
		case KindNoteOff:
			carry = min(carry+uint64(ev.Delta), math.MaxUint32)
			continue
		case KindNoteOn, KindSetTempo, KindEndOfTrack, KindOther:
		default:
			panic(fmt.Sprintf("remap: unhandled event kind %v", ev.Kind))
		}
		ev.Delta = uint32(min(uint64(ev.Delta)+carry, math.MaxUint32))
		carry = 0
		out = append(out, ev)
	}
	return out
}

// chordEnd returns the index after the chord that starts with the note-on at i.
func chordEnd(track Track, i int) int {
	j := i + 1
	for j < len(track) && track[j].Kind == KindNoteOn && track[j].Delta == 0 {
		j++
	}
	return j
}

// resynthesizeNoteOffs inserts a note-off for every note of each chord right after the
// chord. The first inserted note-off takes over the delta of the following event.
func resynthesizeNoteOffs(track Track) Track {
	out := make(Track, 0, 2*len(track))
	absorbed := false
	for i := 0; i < len(track); {
		ev := track[i]
		if absorbed {
			ev.Delta = 0
			absorbed = false
		}
		switch ev.Kind {
		case KindNoteOn:
		case KindNoteOff, KindSetTempo, KindEndOfTrack, KindOther:
			out = append(out, ev)
			i++
			continue
		default:
			panic(fmt.Sprintf("remap: unhandled event kind %v", ev.Kind))
		}

		end := chordEnd(track, i)
		out = append(out, ev)
		out = append(out, track[i+1:end]...)
		delta := uint32(DefaultNoteOffDelta)
		if end < len(track) {
			delta = track[end].Delta
			absorbed = true
		}
		for _, on := range track[i:end] {
			out = append(out, NoteOff(delta, on.Channel, on.Note, 0))
			if absorbed {
				delta = 0
			}
		}
		i = end
	}
	return out
}

// checkRange fails if a value no longer fits the MIDI file format.
func checkRange(track Track) error {
	for i, ev := range track {
		if ev.Delta > MaxDelta {
			return fmt.Errorf("%w: delta %d of event %d exceeds %d", ErrUnsupportedShape, ev.Delta, i, MaxDelta)
		}
		if ev.Kind == KindSetTempo && ev.MicrosecondsPerBeat > MaxMicrosecondsPerBeat {
			return fmt.Errorf("%w: tempo %d of event %d exceeds %d", ErrUnsupportedShape, ev.MicrosecondsPerBeat, i, MaxMicrosecondsPerBeat)
		}
	}
	return nil
}
