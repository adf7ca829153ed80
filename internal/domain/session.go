/**
 * @description
 * This file defines the core domain model for a pickleball session. A session is
 * the unit everything else hangs off: signups, the waitlist, the cost split, and
 * the payment obligations created when the roster locks.
 *
 * @notes
 * - All monetary amounts are `int64` cents. Floating point never touches money.
 * - Two per-court rates exist because the venue bills the reserving owner at the
 *   member rate while the group splits at the agreed (often padded) rate.
 * - `GuestShareCents` is nil until the roster locks; once set it is the frozen
 *   per-guest amount for the whole locked cycle, including waitlist promotions.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus defines the lifecycle state of a session.
type SessionStatus string

const (
	SessionProposed  SessionStatus = "proposed"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Session represents one scheduled play session for a group.
// This struct maps directly to the `sessions` table.
type Session struct {
	ID              uuid.UUID     `json:"id"`
	GroupID         uuid.UUID     `json:"group_id"`
	OwnerID         uuid.UUID     `json:"owner_id"`
	Title           string        `json:"title"`
	ScheduledAt     time.Time     `json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Courts          int           `json:"courts"`
	OwnerRateCents  int64         `json:"owner_rate_cents"` // per court, what the venue bills the owner
	SplitRateCents  int64         `json:"split_rate_cents"` // per court, what the group splits
	MinPlayers      int           `json:"min_players"`
	MaxPlayers      int           `json:"max_players"`
	Status          SessionStatus `json:"status"`
	RosterLocked    bool          `json:"roster_locked"`
	GuestShareCents *int64        `json:"guest_share_cents,omitempty"` // frozen at lock time
	PaymentDeadline *time.Time    `json:"payment_deadline,omitempty"`
	CancelReason    *string       `json:"cancel_reason,omitempty"`
	WaitlistSeq     int           `json:"-"` // monotonic rank source, never reused
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CreateSessionRequest is the DTO for proposing a new session.
type CreateSessionRequest struct {
	GroupID         uuid.UUID  `json:"group_id"`
	Title           string     `json:"title"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Courts          int        `json:"courts"`
	OwnerRateCents  int64      `json:"owner_rate_cents"`
	SplitRateCents  int64      `json:"split_rate_cents"`
	MinPlayers      int        `json:"min_players"`
	MaxPlayers      int        `json:"max_players"`
	PaymentDeadline *time.Time `json:"payment_deadline,omitempty"`
}

// UpdateSessionRequest is the DTO for owner edits. Nil fields are left unchanged.
// Once the roster is locked only Title, PaymentDeadline and a raised MaxPlayers
// are honored; everything else is rejected at the service layer.
type UpdateSessionRequest struct {
	Title           *string    `json:"title,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Courts          *int       `json:"courts,omitempty"`
	OwnerRateCents  *int64     `json:"owner_rate_cents,omitempty"`
	SplitRateCents  *int64     `json:"split_rate_cents,omitempty"`
	MinPlayers      *int       `json:"min_players,omitempty"`
	MaxPlayers      *int       `json:"max_players,omitempty"`
	PaymentDeadline *time.Time `json:"payment_deadline,omitempty"`
}

// CostSummary is the read model returned by the cost endpoint. While the
// session is unlocked the share is a live projection; once locked it reports
// the frozen share plus how much of it has actually arrived.
type CostSummary struct {
	SessionID          uuid.UUID `json:"session_id"`
	Locked             bool      `json:"locked"`
	Courts             int       `json:"courts"`
	OwnerCostCents     int64     `json:"owner_cost_cents"`
	SplitCostCents     int64     `json:"split_cost_cents"`
	CommittedGuests    int       `json:"committed_guests"`
	GuestShareCents    int64     `json:"guest_share_cents"`
	HostRemainderCents int64     `json:"host_remainder_cents"`
	PendingCents       int64     `json:"pending_cents"`
	SatisfiedCents     int64     `json:"satisfied_cents"`
	WaivedCents        int64     `json:"waived_cents"`
	ReversedCents      int64     `json:"reversed_cents"`
}
