/**
 * @description
 * This file contains the HTTP handlers for roster operations: RSVPs,
 * owner-managed signups, the roster listing, and the lock/unlock cycle.
 */

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

// RSVPHandler handles PUT /sessions/{sessionID}/rsvp for the calling player.
func (h *Handlers) RSVPHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	var req domain.RSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	change, err := h.service.RSVP(r.Context(), playerID, sessionID, req.Status)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, change)
}

// AddSignupHandler handles POST /sessions/{sessionID}/signups, the owner
// placing another group member on the roster.
func (h *Handlers) AddSignupHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	var req domain.AddSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	change, err := h.service.AddSignup(r.Context(), playerID, sessionID, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, change)
}

// ListRosterHandler handles GET /sessions/{sessionID}/roster.
func (h *Handlers) ListRosterHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	signups, err := h.service.ListSessionRoster(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"signups": signups})
}

// GetMySignupHandler handles GET /sessions/{sessionID}/signups/me.
func (h *Handlers) GetMySignupHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	signup, err := h.service.GetSignup(r.Context(), sessionID, playerID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, signup)
}

// LockRosterHandler handles POST /sessions/{sessionID}/lock.
func (h *Handlers) LockRosterHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	session, obligations, err := h.service.LockRoster(r.Context(), playerID, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":     session,
		"obligations": obligations,
	})
}

// UnlockRosterHandler handles POST /sessions/{sessionID}/unlock.
func (h *Handlers) UnlockRosterHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	session, removed, err := h.service.UnlockRoster(r.Context(), playerID, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":             session,
		"removed_obligations": removed,
	})
}
