/**
 * @description
 * This file defines the Obligation model: the frozen per-player debt created
 * when a roster locks. Obligations are what inbound payment notices reconcile
 * against.
 *
 * @notes
 * - `ReferenceCode` backs the correlation token (`PB-<uuid>`) that players are
 *   asked to put in their payment memo. It is unique across all obligations.
 * - `MatchedObligationID` on reconciliation records points here weakly; nothing
 *   cascades when an obligation is deleted by an unlock.
 * - `ReplacementFound` is informational. It marks a vacated payer's obligation
 *   after a waitlist promotion so the owner knows a refund is owed; the actual
 *   reversal is an explicit owner action.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ObligationStatus defines the ledger state of one player's debt.
type ObligationStatus string

const (
	ObligationPending   ObligationStatus = "pending"
	ObligationSatisfied ObligationStatus = "satisfied"
	ObligationReversed  ObligationStatus = "reversed"
	ObligationWaived    ObligationStatus = "waived"
)

// SatisfiedVia records how an obligation got satisfied.
type SatisfiedVia string

const (
	SatisfiedViaReconciled SatisfiedVia = "reconciled"
	SatisfiedViaManual     SatisfiedVia = "manual"
)

// Obligation represents one committed guest's share of a locked session.
// This struct maps directly to the `obligations` table.
type Obligation struct {
	ID               uuid.UUID        `json:"id"`
	SessionID        uuid.UUID        `json:"session_id"`
	SignupID         uuid.UUID        `json:"signup_id"`
	PlayerID         uuid.UUID        `json:"player_id"`
	AmountCents      int64            `json:"amount_cents"`
	Status           ObligationStatus `json:"status"`
	ReferenceCode    uuid.UUID        `json:"reference_code"`
	SatisfiedVia     *SatisfiedVia    `json:"satisfied_via,omitempty"`
	Note             *string          `json:"note,omitempty"`
	ReplacementFound bool             `json:"replacement_found"`
	CreatedAt        time.Time        `json:"created_at"`
	SatisfiedAt      *time.Time       `json:"satisfied_at,omitempty"`
	WaivedAt         *time.Time       `json:"waived_at,omitempty"`
	ReversedAt       *time.Time       `json:"reversed_at,omitempty"`
}

// WaiveObligationRequest is the DTO for an owner forgiving a pending obligation.
// The note is required; waives are owner judgment calls and need an audit trail.
type WaiveObligationRequest struct {
	Note string `json:"note"`
}

// ReverseObligationRequest is the DTO for reversing a satisfied obligation,
// used when a replacement player paid after the original payer already had.
type ReverseObligationRequest struct {
	Reason string `json:"reason"`
}

// ReminderTarget is one pending obligation due for a payment reminder sweep.
type ReminderTarget struct {
	ObligationID uuid.UUID `json:"obligation_id"`
	SessionID    uuid.UUID `json:"session_id"`
	PlayerID     uuid.UUID `json:"player_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}
