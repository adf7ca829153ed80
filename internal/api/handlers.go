/**
 * @description
 * This file contains the HTTP handlers for the session endpoints plus the
 * shared plumbing every handler uses: JSON helpers, URL param parsing, and
 * the mapping from service errors to HTTP status codes. Handlers parse the
 * request, call the application service, and write the response; no business
 * rules live here.
 *
 * @dependencies
 * - encoding/json, errors, log/slog, net/http, strconv: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: Service logic, models, and
 *   typed errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/app"
	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

// Handlers holds the application service and ingest rate limiter the HTTP
// layer dispatches into.
type Handlers struct {
	service          *app.Service
	limiter          *app.RedisRateLimiter
	noticeRatePerMin int
	logger           *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *app.Service, limiter *app.RedisRateLimiter, noticeRatePerMin int, logger *slog.Logger) *Handlers {
	return &Handlers{
		service:          service,
		limiter:          limiter,
		noticeRatePerMin: noticeRatePerMin,
		logger:           logger,
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and store errors to HTTP status codes.
// State-machine violations and gate misses are conflicts; absent rows are not
// found; authorization failures are forbidden; input problems are bad
// requests. Anything unrecognized is logged and hidden behind a 500.
func (h *Handlers) respondServiceError(w http.ResponseWriter, err error) {
	var transitionErr *store.InvalidTransitionError
	var belowMinErr *store.BelowMinimumError

	switch {
	case errors.As(err, &transitionErr),
		errors.As(err, &belowMinErr),
		errors.Is(err, store.ErrAlreadyLocked),
		errors.Is(err, store.ErrNotLocked),
		errors.Is(err, store.ErrObligationNotPending),
		errors.Is(err, store.ErrObligationNotSatisfied),
		errors.Is(err, app.ErrLockedFieldEdit):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, store.ErrPlayerNotFound),
		errors.Is(err, store.ErrSignupNotFound),
		errors.Is(err, store.ErrObligationNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrForbidden),
		errors.Is(err, app.ErrNotGroupMember):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrInvalidCourtCount),
		errors.Is(err, app.ErrInvalidRates),
		errors.Is(err, app.ErrInvalidPlayerBounds),
		errors.Is(err, app.ErrInvalidSchedule),
		errors.Is(err, app.ErrInvalidSignupStatus),
		errors.Is(err, app.ErrNoteRequired),
		errors.Is(err, app.ErrInvalidPreference):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("unhandled service error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// callerID pulls the authenticated player id out of the request context.
func (h *Handlers) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	playerID, ok := GetPlayerID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get player ID from context")
		return uuid.Nil, false
	}
	return playerID, true
}

// uuidParam parses a UUID URL parameter.
func (h *Handlers) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// CreateSessionHandler handles POST /sessions.
func (h *Handlers) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req domain.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	session, err := h.service.ProposeSession(r.Context(), playerID, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, session)
}

// GetSessionHandler handles GET /sessions/{sessionID}.
func (h *Handlers) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, session)
}

// ListGroupSessionsHandler handles GET /groups/{groupID}/sessions.
func (h *Handlers) ListGroupSessionsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	groupID, ok := h.uuidParam(w, r, "groupID")
	if !ok {
		return
	}

	limit := intQuery(r, "limit", 50)
	offset := intQuery(r, "offset", 0)

	sessions, err := h.service.ListGroupSessions(r.Context(), playerID, groupID, limit, offset)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// UpdateSessionHandler handles PATCH /sessions/{sessionID}.
func (h *Handlers) UpdateSessionHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	var req domain.UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	session, promotions, err := h.service.UpdateSession(r.Context(), playerID, sessionID, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":    session,
		"promotions": promotions,
	})
}

// DeleteSessionHandler handles DELETE /sessions/{sessionID}.
func (h *Handlers) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	if err := h.service.DeleteSession(r.Context(), playerID, sessionID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelSessionHandler handles POST /sessions/{sessionID}/cancel.
func (h *Handlers) CancelSessionHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	session, err := h.service.CancelSession(r.Context(), playerID, sessionID, req.Reason)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, session)
}

// GetCostSummaryHandler handles GET /sessions/{sessionID}/cost.
func (h *Handlers) GetCostSummaryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	summary, err := h.service.GetCostSummary(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}
