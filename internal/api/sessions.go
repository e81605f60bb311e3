package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/session"
)

// sessionHandler serves the chat history panel. Sessions are created
// implicitly by the first chat turn, so the surface is read and delete
// only.
type sessionHandler struct {
	sessions *session.Store
	logger   log.Logger
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type sessionSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Page      string `json:"page,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// handleList returns recent sessions, newest first.
//
// GET /api/v1/sessions
func (h *sessionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", defaultPageLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err := parseIntParam(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}

	sessions, err := h.sessions.Sessions(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("listing sessions", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "database error", h.logger)
		return
	}

	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary{
			ID:        s.ID.String(),
			Title:     s.Title,
			Page:      s.Page,
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
			UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
		})
	}
	writeData(w, http.StatusOK, out, h.logger)
}

type messageView struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// handleMessages returns the visible conversation for one session. Tool
// traffic is part of the stored history but not of the transcript the
// operator reads, so only user and model text rows come back.
//
// GET /api/v1/sessions/{id}/messages
func (h *sessionHandler) handleMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "session ID must be a valid UUID", h.logger)
		return
	}
	limit, err := parseIntParam(r, "limit", defaultPageLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err := parseIntParam(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}

	// An unknown session reads as an empty message list, so existence is
	// checked explicitly to give the client a real 404.
	if _, err := h.sessions.Session(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "session not found", h.logger)
			return
		}
		h.logger.Error("loading session", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "database error", h.logger)
		return
	}

	messages, err := h.sessions.Messages(r.Context(), sessionID, limit, offset)
	if err != nil {
		h.logger.Error("listing messages", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "database error", h.logger)
		return
	}

	out := make([]messageView, 0, len(messages))
	for _, m := range messages {
		if m.Role != session.RoleUser && m.Role != session.RoleModel {
			continue
		}
		text := flattenText(m.Content)
		if text == "" {
			continue
		}
		out = append(out, messageView{
			ID:        m.ID,
			Role:      m.Role,
			Content:   text,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	writeData(w, http.StatusOK, out, h.logger)
}

// handleDelete removes a session and its messages.
//
// DELETE /api/v1/sessions/{id}
func (h *sessionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "session ID must be a valid UUID", h.logger)
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "session not found", h.logger)
			return
		}
		h.logger.Error("deleting session", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "database error", h.logger)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": sessionID.String()}, h.logger)
}

// flattenText joins a message's text parts, dropping media and tool
// payloads.
func flattenText(parts []*ai.Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if p.IsText() {
			sb.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
