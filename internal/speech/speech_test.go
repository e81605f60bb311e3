package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeWAV is a minimal RIFF header; the fake API never decodes it.
var fakeWAV = []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

func newService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	s := New(Config{})

	if got := string(s.sttModel); got != DefaultSTTModel {
		t.Errorf("sttModel = %q, want %q", got, DefaultSTTModel)
	}
	if got := string(s.ttsModel); got != DefaultTTSModel {
		t.Errorf("ttsModel = %q, want %q", got, DefaultTTSModel)
	}
	if got := string(s.voice); got != DefaultVoice {
		t.Errorf("voice = %q, want %q", got, DefaultVoice)
	}
	if s.logger == nil {
		t.Error("logger should default to nop")
	}
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	t.Parallel()

	s := New(Config{APIKey: "test-key"})

	_, err := s.Transcribe(context.Background(), nil)
	if !errors.Is(err, ErrNoAudio) {
		t.Errorf("Transcribe(nil) error = %v, want ErrNoAudio", err)
	}
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("path = %s, want .../audio/transcriptions", r.URL.Path)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model field = %q, want whisper-1", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file part missing: %v", err)
		}
		defer func() { _ = file.Close() }()
		if header.Filename != "voice_input.wav" {
			t.Errorf("upload filename = %q, want voice_input.wav", header.Filename)
		}
		uploaded, _ := io.ReadAll(file)
		if !bytes.Equal(uploaded, fakeWAV) {
			t.Error("uploaded audio does not match input")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"text": "  Show me unassigned vehicles  ",
		})
	})

	text, err := s.Transcribe(context.Background(), fakeWAV)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "Show me unassigned vehicles" {
		t.Errorf("Transcribe() = %q, want trimmed transcript", text)
	}
}

func TestTranscribeSilence(t *testing.T) {
	t.Parallel()

	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "   "})
	})

	_, err := s.Transcribe(context.Background(), fakeWAV)
	if !errors.Is(err, ErrNoSpeech) {
		t.Errorf("Transcribe() error = %v, want ErrNoSpeech", err)
	}
}

func TestTranscribeAPIError(t *testing.T) {
	t.Parallel()

	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		// 400 is not retried by the SDK, so the failure surfaces at once.
		http.Error(w, `{"error":{"message":"invalid file format"}}`, http.StatusBadRequest)
	})

	_, err := s.Transcribe(context.Background(), fakeWAV)
	if err == nil {
		t.Fatal("expected error from API failure")
	}
	if errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrNoAudio) {
		t.Errorf("API failure mapped to a sentinel: %v", err)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	t.Parallel()

	s := New(Config{APIKey: "test-key"})

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := s.Synthesize(context.Background(), text); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Synthesize(%q) error = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	mp3 := []byte("ID3\x03fake-mp3-payload")

	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			t.Errorf("path = %s, want .../audio/speech", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["model"] != "gpt-4o-mini-tts" {
			t.Errorf("model = %v, want gpt-4o-mini-tts", body["model"])
		}
		if body["voice"] != "alloy" {
			t.Errorf("voice = %v, want alloy", body["voice"])
		}
		if body["input"] != "Trip removed. Bookings were cancelled." {
			t.Errorf("input = %v", body["input"])
		}
		if body["response_format"] != "mp3" {
			t.Errorf("response_format = %v, want mp3", body["response_format"])
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(mp3)
	})

	audio, err := s.Synthesize(context.Background(), "Trip removed. Bookings were cancelled.")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !bytes.Equal(audio, mp3) {
		t.Errorf("Synthesize() returned %d bytes, want the MP3 payload", len(audio))
	}
}

func TestSynthesizeAPIError(t *testing.T) {
	t.Parallel()

	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid voice"}}`, http.StatusBadRequest)
	})

	_, err := s.Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from API failure")
	}
	if !strings.Contains(err.Error(), "synthesizing speech") {
		t.Errorf("error = %v, want wrapped synthesis error", err)
	}
}

func TestSynthesizeTrimsInput(t *testing.T) {
	t.Parallel()

	s := newService(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["input"] != "short reply" {
			t.Errorf("input = %v, want trimmed text", body["input"])
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		fmt.Fprint(w, "audio")
	})

	if _, err := s.Synthesize(context.Background(), "  short reply  \n"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
}
