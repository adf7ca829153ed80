/**
 * @description
 * This file contains the HTTP handlers for the internal reconciliation
 * surface: the payment notice ingest endpoint the upstream email-parser posts
 * to, and the audit record listing owners' support tooling reads.
 *
 * @notes
 * - Ingest is rate limited per provider. The limiter failing open is
 *   deliberate: every notice is recorded and reprocessing is idempotent, so
 *   letting a burst through is cheaper than dropping payments while Redis is
 *   down.
 */

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

const noticeIngestScope = "notice_ingest"

// IngestNoticeHandler handles POST /internal/reconciliation/notices.
func (h *Handlers) IngestNoticeHandler(w http.ResponseWriter, r *http.Request) {
	var notice domain.PaymentNotice
	if err := json.NewDecoder(r.Body).Decode(&notice); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(notice.ExternalID) == "" {
		h.writeError(w, http.StatusBadRequest, "external_id is required")
		return
	}
	if notice.ReceivedAt.IsZero() {
		notice.ReceivedAt = time.Now().UTC()
	}

	subject := strings.TrimSpace(notice.Provider)
	if subject == "" {
		subject = "unknown"
	}
	count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), noticeIngestScope, subject, h.noticeRatePerMin, time.Minute)
	if err != nil {
		h.logger.Warn("notice rate limiter unavailable, allowing request", "provider", subject, "error", err)
	} else if h.noticeRatePerMin > 0 && count > h.noticeRatePerMin {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		h.writeError(w, http.StatusTooManyRequests, "Notice ingest rate limit exceeded")
		return
	}

	record, err := h.service.ProcessNotice(r.Context(), notice)
	if err != nil {
		h.logger.Error("notice processing failed", "notice_id", notice.ExternalID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to process notice")
		return
	}
	h.writeJSON(w, http.StatusAccepted, record)
}

// ListReconciliationRecordsHandler handles GET /internal/reconciliation/records.
func (h *Handlers) ListReconciliationRecordsHandler(w http.ResponseWriter, r *http.Request) {
	opts := store.ReconciliationListOptions{
		Limit:  intQuery(r, "limit", 0),
		Offset: intQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("session_id"); raw != "" {
		sessionID, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid session_id")
			return
		}
		opts.SessionHint = &sessionID
	}
	if raw := r.URL.Query().Get("method"); raw != "" {
		method := domain.MatchMethod(raw)
		switch method {
		case domain.MatchExactToken, domain.MatchFuzzy, domain.MatchUnmatched:
			opts.Method = &method
		default:
			h.writeError(w, http.StatusBadRequest, "Invalid method")
			return
		}
	}

	records, err := h.service.ListReconciliationRecords(r.Context(), opts)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}
