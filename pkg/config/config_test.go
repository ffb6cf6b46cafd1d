package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/james-see/midiremap/pkg/remap"
)

func TestReadOptions(t *testing.T) {
	fsys := fstest.MapFS{
		"midiremap.yml": {Data: []byte("output: out.mid\ntrack: 2\ntempo_fix: [60, 160]\nblank_beats: 1\nevents_file: events.txt\n")},
		"empty.yml":     {Data: []byte("")},
		"unknown.yml":   {Data: []byte("tempo: 3\n")},
	}

	got, err := ReadOptions(fsys, "midiremap.yml")
	if err != nil {
		t.Fatalf("ReadOptions() error = %v", err)
	}
	want := &Options{
		Output:     "out.mid",
		Track:      Int(2),
		TempoFix:   []int{60, 160},
		BlankBeats: Int(1),
		EventsFile: "events.txt",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadOptions() = %+v, want %+v", got, want)
	}

	empty, err := ReadOptions(fsys, "empty.yml")
	if err != nil {
		t.Fatalf("ReadOptions(empty) error = %v", err)
	}
	if !reflect.DeepEqual(empty, &Options{}) {
		t.Errorf("ReadOptions(empty) = %+v, want zero options", empty)
	}

	if _, err := ReadOptions(fsys, "unknown.yml"); err == nil {
		t.Error("ReadOptions(unknown) succeeded, want error for unknown field")
	}
	if _, err := ReadOptions(fsys, "missing.yml"); err == nil {
		t.Error("ReadOptions(missing) succeeded, want error")
	}
}

func TestWriteOptionsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, DefaultFile)
	opts := &Options{Track: Int(0), TempoFix: []int{90, 120}}

	if err := WriteOptions(name, opts); err != nil {
		t.Fatalf("WriteOptions() error = %v", err)
	}
	got, err := ReadOptions(os.DirFS(dir), DefaultFile)
	if err != nil {
		t.Fatalf("ReadOptions() error = %v", err)
	}
	if !reflect.DeepEqual(got, opts) {
		t.Errorf("ReadOptions() = %+v, want %+v", got, opts)
	}
}

func TestMerge(t *testing.T) {
	file := Options{
		Output:     "file.mid",
		Track:      Int(3),
		TempoFix:   []int{60, 160},
		BlankBeats: Int(2),
	}
	flags := Options{
		Input: "song.mid",
		Track: Int(0),
	}

	got := Merge(file, flags)
	want := Options{
		Input:      "song.mid",
		Output:     "file.mid",
		Track:      Int(0),
		TempoFix:   []int{60, 160},
		BlankBeats: Int(2),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %+v, want %+v", got, want)
	}
}

func TestRemapConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    remap.Config
		wantErr bool
	}{
		{
			name: "defaults",
			opts: Options{},
			want: remap.Config{},
		},
		{
			name: "all set",
			opts: Options{Track: Int(1), TempoFix: []int{60, 160}, BlankBeats: Int(4)},
			want: remap.Config{TrackIndex: 1, TempoFix: true, TempoSrc: 60, TempoTar: 160, BlankBeats: 4},
		},
		{
			name:    "one tempo value",
			opts:    Options{TempoFix: []int{60}},
			wantErr: true,
		},
		{
			name:    "three tempo values",
			opts:    Options{TempoFix: []int{60, 120, 160}},
			wantErr: true,
		},
		{
			name:    "zero tempo",
			opts:    Options{TempoFix: []int{0, 160}},
			wantErr: true,
		},
		{
			name:    "negative track",
			opts:    Options{Track: Int(-1)},
			wantErr: true,
		},
		{
			name:    "negative blank beats",
			opts:    Options{BlankBeats: Int(-2)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.RemapConfig()
			if tt.wantErr {
				if !errors.Is(err, ErrUsage) {
					t.Errorf("RemapConfig() error = %v, want %v", err, ErrUsage)
				}
				return
			}
			if err != nil {
				t.Fatalf("RemapConfig() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RemapConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
