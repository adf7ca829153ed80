/**
 * @description
 * This file defines the signup (roster membership) model and the DTOs for
 * joining, changing status, and reporting what a roster mutation actually did.
 *
 * @notes
 * - One signup row exists per (session, player); status changes reuse the row
 *   so the audit trail of a withdraw/rejoin survives.
 * - WaitlistRank comes from the session's monotonic counter. Ranks are never
 *   reassigned or reused, so the lowest rank is always the longest-waiting
 *   tentative signup.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SignupRole distinguishes the reserving host from regular guests.
type SignupRole string

const (
	RoleHost  SignupRole = "host"
	RoleGuest SignupRole = "guest"
)

// SignupStatus defines a player's standing on a session roster.
type SignupStatus string

const (
	SignupCommitted SignupStatus = "committed"
	SignupTentative SignupStatus = "tentative"
	SignupWithdrawn SignupStatus = "withdrawn"
)

// Signup represents one player's standing on one session's roster.
// This struct maps directly to the `signups` table.
type Signup struct {
	ID              uuid.UUID    `json:"id"`
	SessionID       uuid.UUID    `json:"session_id"`
	PlayerID        uuid.UUID    `json:"player_id"`
	Role            SignupRole   `json:"role"`
	Status          SignupStatus `json:"status"`
	WaitlistRank    *int         `json:"waitlist_rank,omitempty"`
	StatusChangedAt time.Time    `json:"status_changed_at"`
	CreatedAt       time.Time    `json:"created_at"`
}

// RSVPRequest is the DTO for a player changing their own roster status.
type RSVPRequest struct {
	Status SignupStatus `json:"status"`
}

// AddSignupRequest is the DTO for an owner placing another player on the roster.
type AddSignupRequest struct {
	PlayerID uuid.UUID    `json:"player_id"`
	Status   SignupStatus `json:"status"`
}

// Promotion describes one waitlisted player moving into a committed slot. The
// obligation is non-nil only when the promotion happened on a locked roster,
// in which case its amount is the session's frozen share.
type Promotion struct {
	Signup     Signup      `json:"signup"`
	Obligation *Obligation `json:"obligation,omitempty"`
}

// SignupChange reports everything a single roster mutation did, because one
// commit/withdraw can cascade: the caller may be routed to the waitlist, a
// tentative player may be promoted into the freed slot, and a guest who
// commits onto a locked roster is charged the frozen share on the spot.
type SignupChange struct {
	Signup           Signup      `json:"signup"`
	RoutedToWaitlist bool        `json:"routed_to_waitlist"`
	Promotion        *Promotion  `json:"promotion,omitempty"`
	Obligation       *Obligation `json:"obligation,omitempty"`
}
