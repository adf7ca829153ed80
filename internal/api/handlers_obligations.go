/**
 * @description
 * This file contains the HTTP handlers for the obligation ledger: listing,
 * manual satisfaction, waiving and reversal.
 */

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

// ListSessionObligationsHandler handles GET /sessions/{sessionID}/obligations
// for the session owner.
func (h *Handlers) ListSessionObligationsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	obligations, err := h.service.ListSessionObligations(r.Context(), playerID, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"obligations": obligations})
}

// ListMyObligationsHandler handles GET /obligations, the calling player's own
// debts across sessions.
func (h *Handlers) ListMyObligationsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	obligations, err := h.service.ListPlayerObligations(r.Context(), playerID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"obligations": obligations})
}

// GetObligationHandler handles GET /obligations/{obligationID}.
func (h *Handlers) GetObligationHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	obligationID, ok := h.uuidParam(w, r, "obligationID")
	if !ok {
		return
	}

	obligation, err := h.service.GetObligation(r.Context(), playerID, obligationID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, obligation)
}

// SatisfyObligationHandler handles POST /obligations/{obligationID}/satisfy.
func (h *Handlers) SatisfyObligationHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	obligationID, ok := h.uuidParam(w, r, "obligationID")
	if !ok {
		return
	}

	obligation, err := h.service.SatisfyObligation(r.Context(), playerID, obligationID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, obligation)
}

// WaiveObligationHandler handles POST /obligations/{obligationID}/waive.
func (h *Handlers) WaiveObligationHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	obligationID, ok := h.uuidParam(w, r, "obligationID")
	if !ok {
		return
	}

	var req domain.WaiveObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	obligation, err := h.service.WaiveObligation(r.Context(), playerID, obligationID, req.Note)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, obligation)
}

// ReverseObligationHandler handles POST /obligations/{obligationID}/reverse.
func (h *Handlers) ReverseObligationHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	obligationID, ok := h.uuidParam(w, r, "obligationID")
	if !ok {
		return
	}

	var req domain.ReverseObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	obligation, err := h.service.ReverseObligation(r.Context(), playerID, obligationID, req.Reason)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, obligation)
}
