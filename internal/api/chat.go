package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/movitransit/movi/internal/agent"
	"github.com/movitransit/movi/internal/chat"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/session"
	"github.com/movitransit/movi/internal/speech"
)

// chatHandler serves the streaming chat endpoints. The speech service is
// optional; without it requests asking for spoken replies still succeed,
// just silently.
type chatHandler struct {
	flow         *chat.Flow
	agent        *chat.Agent
	sessions     *session.Store
	speech       *speech.Service
	speakReplies bool // default for requests that leave "speak" unset
	logger       log.Logger
}

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
	Page      string `json:"page,omitempty"`
	ImageData string `json:"imageData,omitempty"`

	// Speak overrides the server-wide voice reply default for this turn.
	Speak *bool `json:"speak,omitempty"`
}

type confirmRequest struct {
	SessionID string `json:"sessionId"`
	Approved  bool   `json:"approved"`
	Reason    string `json:"reason,omitempty"`
	Speak     *bool  `json:"speak,omitempty"`
}

// donePayload is the terminal SSE frame. It repeats the full turn result
// so clients that ignore intermediate frames still get everything.
type donePayload struct {
	chat.Output
	// Audio is the spoken reply as base64 MP3, when voice replies are on.
	Audio string `json:"audio,omitempty"`
}

// sseWriter emits Server-Sent Events frames. Each frame is flushed
// immediately so chunks reach the browser as they are generated.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  log.Logger
}

// startSSE commits the response to the event stream protocol. It must be
// called before any frame and after all JSON-error bailouts.
func startSSE(w http.ResponseWriter, logger log.Logger) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternal, "streaming unsupported", logger)
		return nil, false
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher, logger: logger}, true
}

func (s *sseWriter) writeEvent(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshaling sse event", "event", name, "error", err)
		return
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		s.logger.Debug("writing sse event", "event", name, "error", err)
		return
	}
	s.flusher.Flush()
}

// writeAgentEvent maps an agent stream event onto the wire vocabulary.
func (s *sseWriter) writeAgentEvent(ev agent.Event) {
	switch ev.Type {
	case agent.EventText:
		s.writeEvent("chunk", map[string]string{"text": ev.Text})
	case agent.EventToolStart:
		s.writeEvent("tool_start", map[string]string{"tool": ev.Tool})
	case agent.EventToolComplete:
		s.writeEvent("tool_complete", map[string]string{"tool": ev.Tool})
	case agent.EventConfirmation:
		s.writeEvent("confirmation", ev.Confirmation)
	}
}

// handleSend runs one chat turn over SSE.
//
// POST /api/v1/chat
func (h *chatHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}
	if strings.TrimSpace(req.Query) == "" && req.ImageData == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "query is required", h.logger)
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "sessionId is required", h.logger)
		return
	}

	sse, ok := startSSE(w, h.logger)
	if !ok {
		return
	}

	input := chat.Input{
		Query:     req.Query,
		SessionID: req.SessionID,
		Page:      req.Page,
		ImageData: req.ImageData,
	}

	var out chat.Output
	for sv, err := range h.flow.Stream(r.Context(), input) {
		if err != nil {
			h.streamError(r.Context(), sse, err)
			return
		}
		if sv.Done {
			out = sv.Output
			break
		}
		sse.writeAgentEvent(sv.Stream)
	}

	// Title generation runs before the done frame so the session list is
	// already fresh when the client refetches it on completion.
	h.maybeGenerateTitle(r.Context(), req.SessionID, req.Query)

	sse.writeEvent("done", donePayload{
		Output: out,
		Audio:  h.synthesizeReply(r.Context(), h.wantSpeech(req.Speak), out.Response),
	})
}

// handleConfirm resumes a turn paused on a dangerous tool with the
// operator's decision, streaming the rest of the turn over SSE.
//
// POST /api/v1/chat/confirm
func (h *chatHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "sessionId must be a valid UUID", h.logger)
		return
	}

	sse, ok := startSSE(w, h.logger)
	if !ok {
		return
	}

	decision := agent.ConfirmationResponse{Approved: req.Approved, Reason: req.Reason}
	resp, err := h.agent.Confirm(r.Context(), sessionID, decision, func(_ context.Context, ev agent.Event) error {
		sse.writeAgentEvent(ev)
		return nil
	})
	if err != nil {
		h.streamError(r.Context(), sse, err)
		return
	}

	out := chat.Output{Response: resp.FinalText, SessionID: req.SessionID}
	sse.writeEvent("done", donePayload{
		Output: out,
		Audio:  h.synthesizeReply(r.Context(), h.wantSpeech(req.Speak), out.Response),
	})
}

// streamError reports a failed turn on an already-committed event stream.
// The HTTP status is long gone, so the error frame is all the client gets.
func (h *chatHandler) streamError(ctx context.Context, sse *sseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		h.logger.Debug("chat stream canceled by client")
	case errors.Is(err, agent.ErrInvalidSession):
		sse.writeEvent("error", errorBody{Code: codeInvalidRequest, Message: "invalid session ID"})
	case errors.Is(err, agent.ErrNoPendingConfirmation):
		sse.writeEvent("error", errorBody{Code: codeNotFound, Message: "no pending confirmation for this session"})
	default:
		h.logger.Error("chat turn failed", "error", err)
		sse.writeEvent("error", errorBody{Code: codeInternal, Message: "chat turn failed"})
	}
}

func (h *chatHandler) wantSpeech(override *bool) bool {
	if override != nil {
		return *override
	}
	return h.speakReplies
}

// synthesizeReply renders the reply as speech when voice replies are on.
// Failures degrade to a silent turn; the text already went out.
func (h *chatHandler) synthesizeReply(ctx context.Context, speak bool, text string) string {
	if !speak || h.speech == nil || strings.TrimSpace(text) == "" {
		return ""
	}

	audio, err := h.speech.Synthesize(ctx, text)
	if err != nil {
		h.logger.Warn("voice reply synthesis failed", "error", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(audio)
}

// maybeGenerateTitle names a session after its first message. Best
// effort; an untitled session is cosmetic, not an error.
func (h *chatHandler) maybeGenerateTitle(ctx context.Context, rawSessionID, query string) {
	if h.sessions == nil || strings.TrimSpace(query) == "" {
		return
	}
	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		return
	}

	sess, err := h.sessions.Session(ctx, sessionID)
	if err != nil {
		h.logger.Debug("loading session for title", "error", err)
		return
	}
	if sess.Title != "" {
		return
	}

	title := h.agent.GenerateTitle(ctx, query)
	if title == "" {
		title = fallbackTitle(query)
	}
	if title == "" {
		return
	}

	if err := h.sessions.UpdateTitle(ctx, sessionID, title); err != nil {
		h.logger.Debug("updating session title", "error", err)
		return
	}
	h.logger.Info("session title generated", "session_id", sessionID, "title", title)
}

// fallbackTitle derives a title from the message itself when the model
// cannot be reached: first line, clamped to the storage limit.
func fallbackTitle(query string) string {
	line := strings.TrimSpace(query)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	runes := []rune(line)
	if len(runes) > session.TitleMaxLength {
		return string(runes[:session.TitleMaxLength-3]) + "..."
	}
	return line
}
