/**
 * @description
 * This file contains the HTTP handler for players managing their
 * notification preferences.
 */

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

// UpdatePreferenceHandler handles PUT /preferences/notifications.
func (h *Handlers) UpdatePreferenceHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req domain.PreferenceUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	pref, err := h.service.UpdateNotificationPreference(r.Context(), playerID, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pref)
}
