package converter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/james-see/midiremap/pkg/remap"
)

const (
	dumpHeader    = "T     | type              | Note | vel \n"
	dumpSeparator = "===== | ================= | ==== | ====\n"
)

var pitchNames = [12]string{"C ", "Db", "D ", "Eb", "E ", "F ", "F#", "G ", "Ab", "A ", "Bb", "B "}

// metaNames names the meta events that commonly show up in a track
var metaNames = map[byte]string{
	0x00: "sequenceNumber",
	0x01: "text",
	0x02: "copyrightNotice",
	0x03: "trackName",
	0x04: "instrumentName",
	0x05: "lyrics",
	0x06: "marker",
	0x07: "cuePoint",
	0x20: "channelPrefix",
	0x21: "portPrefix",
	0x54: "smpteOffset",
	0x58: "timeSignature",
	0x59: "keySignature",
	0x7F: "sequencerSpecific",
}

// channelNames names channel messages by status nibble
var channelNames = map[byte]string{
	0xA: "noteAftertouch",
	0xB: "controller",
	0xC: "programChange",
	0xD: "channelAftertouch",
	0xE: "pitchBend",
}

// PitchName returns the two character pitch class of a note, e.g. "C " or "F#"
func PitchName(note uint8) string {
	return pitchNames[note%12]
}

// Octave returns the octave label of a note. Octave 0 is shown as an empty string.
func Octave(note uint8) string {
	o := int(note)/12 - 1
	if o == 0 {
		return ""
	}
	return strconv.Itoa(o)
}

// EventName returns the type name shown in event dumps
func EventName(ev remap.Event) string {
	if ev.Kind != remap.KindOther || len(ev.Raw) == 0 {
		return ev.Kind.String()
	}
	switch status := ev.Raw[0]; {
	case status == 0xFF && len(ev.Raw) > 1:
		if name, ok := metaNames[ev.Raw[1]]; ok {
			return name
		}
		return "meta"
	case status == 0xF0 || status == 0xF7:
		return "sysEx"
	default:
		if name, ok := channelNames[status>>4]; ok {
			return name
		}
	}
	return ev.Kind.String()
}

// DumpEvents writes track as a fixed-width table, one row per event
func DumpEvents(w io.Writer, track remap.Track) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(dumpHeader)
	bw.WriteString(dumpSeparator)
	for _, ev := range track {
		var pitch, octave, velocity string
		switch ev.Kind {
		case remap.KindNoteOn, remap.KindNoteOff:
			pitch = PitchName(ev.Note)
			octave = Octave(ev.Note)
			velocity = strconv.Itoa(int(ev.Velocity))
		case remap.KindSetTempo, remap.KindEndOfTrack, remap.KindOther:
			pitch = "  "
		}
		fmt.Fprintf(bw, "%5d | %17s | %s%2s | %4s\n", ev.Delta, EventName(ev), pitch, octave, velocity)
	}
	return bw.Flush()
}

// WriteEventsFile writes the event table of track to filename
func WriteEventsFile(filename string, track remap.Track) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", filename, err)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return DumpEvents(f, track)
}
