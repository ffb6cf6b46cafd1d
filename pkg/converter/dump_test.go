package converter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/james-see/midiremap/pkg/remap"
)

func TestPitchName(t *testing.T) {
	tests := []struct {
		note   uint8
		pitch  string
		octave string
	}{
		{60, "C ", "4"},
		{61, "Db", "4"},
		{66, "F#", "4"},
		{1, "Db", "-1"},
		{12, "C ", ""},
		{127, "G ", "9"},
	}
	for _, tt := range tests {
		if got := PitchName(tt.note); got != tt.pitch {
			t.Errorf("PitchName(%d) = %q, want %q", tt.note, got, tt.pitch)
		}
		if got := Octave(tt.note); got != tt.octave {
			t.Errorf("Octave(%d) = %q, want %q", tt.note, got, tt.octave)
		}
	}
}

func TestEventName(t *testing.T) {
	tests := []struct {
		name string
		ev   remap.Event
		want string
	}{
		{"note on", remap.NoteOn(0, 0, 60, 100), "noteOn"},
		{"tempo", remap.SetTempo(0, 500000), "setTempo"},
		{"time signature", remap.Event{Raw: []byte(timeSig44)}, "timeSignature"},
		{"unknown meta", remap.Event{Raw: []byte{0xFF, 0x60, 0x00}}, "meta"},
		{"program change", remap.Event{Raw: []byte{0xC3, 0x05}}, "programChange"},
		{"controller", remap.Event{Raw: []byte{0xB0, 0x07, 0x64}}, "controller"},
		{"sysex", remap.Event{Raw: []byte{0xF0, 0x7E, 0xF7}}, "sysEx"},
		{"empty", remap.Event{}, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EventName(tt.ev); got != tt.want {
				t.Errorf("EventName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDumpEvents(t *testing.T) {
	track := remap.Track{
		remap.SetTempo(0, 500000),
		remap.NoteOn(0, 0, 60, 100),
		remap.NoteOff(240, 0, 60, 0),
		{Raw: []byte(timeSig44)},
		remap.NoteOn(10, 0, 1, 64),
	}
	want := strings.Join([]string{
		"T     | type              | Note | vel ",
		"===== | ================= | ==== | ====",
		"    0 |          setTempo |      |     ",
		"    0 |            noteOn | C  4 |  100",
		"  240 |           noteOff | C  4 |    0",
		"    0 |     timeSignature |      |     ",
		"   10 |            noteOn | Db-1 |   64",
	}, "\n") + "\n"

	var sb strings.Builder
	if err := DumpEvents(&sb, track); err != nil {
		t.Fatalf("DumpEvents() error = %v", err)
	}
	if sb.String() != want {
		t.Errorf("DumpEvents() =\n%s\nwant\n%s", sb.String(), want)
	}
}

func TestWriteEventsFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "events.txt")
	if err := WriteEventsFile(name, remap.Track{remap.NoteOn(0, 0, 60, 100)}); err != nil {
		t.Fatalf("WriteEventsFile() error = %v", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("events file has %d lines, want 3", len(lines))
	}
}
