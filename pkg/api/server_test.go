package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/midiremap/pkg/converter"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testMIDI(t *testing.T) []byte {
	t.Helper()
	var track smf.Track
	track.Add(0, smf.Message([]byte{0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}))
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Add(0, midi.NoteOn(0, 64, 100))
	track.Add(480, midi.NoteOff(0, 60))
	track.Add(0, midi.NoteOff(0, 64))
	track.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	if err := s.Add(track); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, path, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	NewRouter(log.New(io.Discard)).ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	for _, path := range []string{"/health", "/api/v1/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		NewRouter(log.New(io.Discard)).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["service"] != "midiremap" || body["status"] != "healthy" {
			t.Errorf("GET %s body = %v", path, body)
		}
	}
}

func TestListFormats(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil)
	rec := httptest.NewRecorder()
	NewRouter(log.New(io.Discard)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), ".midi") {
		t.Errorf("body %s does not list .midi", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/remap", nil)
	rec := httptest.NewRecorder()
	NewRouter(log.New(io.Discard)).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestHandleRemap(t *testing.T) {
	rec := upload(t, "/api/v1/remap?tempo_src=60&tempo_tar=160", "song.mid", testMIDI(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/midi" {
		t.Errorf("Content-Type = %q, want audio/midi", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=song_remap.mid" {
		t.Errorf("Content-Disposition = %q", got)
	}

	doc, err := converter.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not MIDI: %v", err)
	}
	if got := doc.Tracks[0][0].MicrosecondsPerBeat; got != 187500 {
		t.Errorf("tempo = %d, want 187500", got)
	}
}

func TestHandleRemapQuotesFilename(t *testing.T) {
	rec := upload(t, "/api/v1/remap", "my song;1.mid", testMIDI(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	want := `attachment; filename="my song;1_remap.mid"`
	if got := rec.Header().Get("Content-Disposition"); got != want {
		t.Errorf("Content-Disposition = %q, want %q", got, want)
	}
}

func TestHandleEvents(t *testing.T) {
	rec := upload(t, "/api/v1/events", "song.mid", testMIDI(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	want := strings.Join([]string{
		"T     | type              | Note | vel ",
		"===== | ================= | ==== | ====",
		"    0 |          setTempo |      |     ",
		"    0 |            noteOn | C  4 |  100",
		"    0 |            noteOn | E  4 |  100",
		"  480 |           noteOff | C  4 |    0",
		"    0 |           noteOff | E  4 |    0",
		"    0 |        endOfTrack |      |     ",
	}, "\n") + "\n"
	if rec.Body.String() != want {
		t.Errorf("body =\n%s\nwant\n%s", rec.Body.String(), want)
	}
}

func TestHandleRemapErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		filename string
		data     []byte
		want     int
	}{
		{"no file", "/api/v1/remap", "", nil, http.StatusBadRequest},
		{"wrong extension", "/api/v1/remap", "song.wav", testMIDI(t), http.StatusBadRequest},
		{"bad track", "/api/v1/remap?track=x", "song.mid", testMIDI(t), http.StatusBadRequest},
		{"half tempo", "/api/v1/remap?tempo_src=60", "song.mid", testMIDI(t), http.StatusBadRequest},
		{"track out of range", "/api/v1/remap?track=5", "song.mid", testMIDI(t), http.StatusBadRequest},
		{"not MIDI", "/api/v1/remap", "song.mid", []byte("MThd nonsense"), http.StatusUnprocessableEntity},
		{"too large", "/api/v1/remap", "song.mid", append(testMIDI(t), make([]byte, maxUploadSize)...), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, tt.path, tt.filename, tt.data)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
