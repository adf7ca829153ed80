/**
 * @description
 * This file defines the inbound payment notice and the append-only
 * reconciliation record written for every notice the matcher processes.
 *
 * @notes
 * - Notices arrive already normalized by the upstream email-parser service;
 *   this service never sees raw provider emails. A failed upstream parse shows
 *   up as a zero amount or blank sender, and is still recorded.
 * - Reconciliation records are never updated or deleted. Reprocessing the same
 *   notice appends another record, which is how at-least-once delivery stays
 *   auditable without double-satisfying anything.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentNotice is the normalized description of one observed inbound payment
// on the external P2P network.
type PaymentNotice struct {
	ExternalID  string     `json:"external_id"` // provider message id, opaque
	Provider    string     `json:"provider"`
	AmountCents int64      `json:"amount_cents"` // zero when the upstream parse failed
	SenderLabel string     `json:"sender_label"` // free text as the network rendered it
	RawText     string     `json:"raw_text"`     // memo/body snippet, token lives here
	SessionHint *uuid.UUID `json:"session_hint,omitempty"`
	ReceivedAt  time.Time  `json:"received_at"`
}

// MatchMethod records how (or whether) a notice was tied to an obligation.
type MatchMethod string

const (
	MatchExactToken MatchMethod = "exact_token"
	MatchFuzzy      MatchMethod = "fuzzy"
	MatchUnmatched  MatchMethod = "unmatched"
)

// MatchCandidate pairs a pending obligation with the payer identity fields the
// fuzzy matcher compares sender labels against.
type MatchCandidate struct {
	Obligation  Obligation `json:"obligation"`
	DisplayName string     `json:"display_name"`
	PayHandle   *string    `json:"pay_handle,omitempty"`
}

// ReconciliationRecord is the audit row written for every processed notice.
// This struct maps directly to the `reconciliation_records` table.
type ReconciliationRecord struct {
	ID                  uuid.UUID   `json:"id"`
	NoticeExternalID    string      `json:"notice_external_id"`
	Provider            string      `json:"provider"`
	RawText             string      `json:"raw_text"`
	ParsedAmountCents   int64       `json:"parsed_amount_cents"`
	SenderLabel         string      `json:"sender_label"`
	MatchedObligationID *uuid.UUID  `json:"matched_obligation_id,omitempty"` // weak reference
	Method              MatchMethod `json:"method"`
	Detail              *string     `json:"detail,omitempty"` // parse failure, ambiguity, idempotent repeat
	SessionHint         *uuid.UUID  `json:"session_hint,omitempty"`
	ReceivedAt          time.Time   `json:"received_at"`
	CreatedAt           time.Time   `json:"created_at"`
}
