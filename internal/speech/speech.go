// Package speech wraps OpenAI's audio endpoints for the operator
// console: whisper transcription for voice input and speech synthesis
// for spoken replies.
//
// Both directions degrade gracefully. Callers log synthesis failures
// and fall back to text; a failed transcription leaves the operator
// typing instead of talking. Neither path ever blocks a chat reply.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/movitransit/movi/internal/log"
)

const (
	// DefaultSTTModel transcribes operator voice input.
	DefaultSTTModel = "whisper-1"

	// DefaultTTSModel speaks assistant replies.
	DefaultTTSModel = "gpt-4o-mini-tts"

	// DefaultVoice is the synthesis voice.
	DefaultVoice = "alloy"

	// uploadFilename labels the in-memory recording in the multipart
	// upload; the API infers the container format from its extension.
	uploadFilename = "voice_input.wav"
)

var (
	// ErrNoAudio indicates an empty audio upload.
	ErrNoAudio = errors.New("no audio data")

	// ErrNoSpeech indicates the audio contained nothing transcribable.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrEmptyText indicates there is nothing to synthesize.
	ErrEmptyText = errors.New("empty text")
)

// Config configures the speech service.
type Config struct {
	APIKey     string // optional; the SDK falls back to OPENAI_API_KEY
	BaseURL    string // optional API endpoint override
	STTModel   string
	TTSModel   string
	Voice      string
	HTTPClient *http.Client
	Logger     log.Logger
}

// Service converts between operator audio and text.
type Service struct {
	client   openai.Client
	sttModel openai.AudioModel
	ttsModel openai.SpeechModel
	voice    openai.AudioSpeechNewParamsVoice
	logger   log.Logger
}

// New creates a speech service, applying defaults for zero-valued
// config fields.
func New(cfg Config) *Service {
	if cfg.STTModel == "" {
		cfg.STTModel = DefaultSTTModel
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = DefaultTTSModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Service{
		client:   openai.NewClient(opts...),
		sttModel: openai.AudioModel(cfg.STTModel),
		ttsModel: openai.SpeechModel(cfg.TTSModel),
		voice:    openai.AudioSpeechNewParamsVoice(cfg.Voice),
		logger:   cfg.Logger,
	}
}

// Transcribe converts a recorded WAV clip into text. A clip in which
// the model hears nothing returns ErrNoSpeech.
func (s *Service) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}

	resp, err := s.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: s.sttModel,
		File:  openai.File(bytes.NewReader(audio), uploadFilename, "audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}

	s.logger.Debug("audio transcribed", "audio_bytes", len(audio), "chars", len(text))
	return text, nil
}

// Synthesize renders text as MP3 audio.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          s.ttsModel,
		Voice:          s.voice,
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio response: %w", err)
	}

	s.logger.Debug("speech synthesized", "chars", len(text), "audio_bytes", len(audio))
	return audio, nil
}
