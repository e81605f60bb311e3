package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/speech"
)

// speechHandler serves the mic button: audio in, text out, and the
// reverse for spoken replies requested outside a chat turn.
type speechHandler struct {
	service *speech.Service
	logger  log.Logger
}

// handleTranscribe accepts a multipart upload under the "audio" field
// and returns the recognized text. Silence is a valid outcome, not an
// error: the client shows a "didn't catch that" hint on empty text.
//
// POST /api/v1/speech/transcriptions
func (h *speechHandler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "speech service is not configured", h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, `multipart field "audio" is required`, h.logger)
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "reading audio upload", h.logger)
		return
	}

	text, err := h.service.Transcribe(r.Context(), audio)
	switch {
	case errors.Is(err, speech.ErrNoAudio):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "audio upload is empty", h.logger)
	case errors.Is(err, speech.ErrNoSpeech):
		writeData(w, http.StatusOK, map[string]string{"text": ""}, h.logger)
	case err != nil:
		h.logger.Error("transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, codeInternal, "transcription failed", h.logger)
	default:
		writeData(w, http.StatusOK, map[string]string{"text": text}, h.logger)
	}
}

type speakRequest struct {
	Text string `json:"text"`
}

// handleSynthesize renders text as MP3 audio.
//
// POST /api/v1/speech/speech
func (h *speechHandler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "speech service is not configured", h.logger)
		return
	}

	var req speakRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}

	audio, err := h.service.Synthesize(r.Context(), req.Text)
	switch {
	case errors.Is(err, speech.ErrEmptyText):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "text is required", h.logger)
		return
	case err != nil:
		h.logger.Error("speech synthesis failed", "error", err)
		writeError(w, http.StatusBadGateway, codeInternal, "speech synthesis failed", h.logger)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Debug("writing audio response", "error", err)
	}
}
