/**
 * @description
 * This file defines the read models for players, group membership and
 * notification preferences. Identity and group management live in external
 * services that maintain these tables; this service only reads players and
 * memberships, and owns nothing about them except notification preferences.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Player is the slice of the externally managed `players` table this service
// needs: display identity for fuzzy payment matching and contact presence for
// the notification gate.
type Player struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	PayHandle   *string   `json:"pay_handle,omitempty"` // handle on the P2P payment network
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationChannel identifies a delivery channel the downstream notifier supports.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// NotificationPreference is one player's explicit opt-in/out for one
// (event type, channel) pair. Missing rows mean "use the channel default".
type NotificationPreference struct {
	PlayerID  uuid.UUID           `json:"player_id"`
	EventType EventType           `json:"event_type"`
	Channel   NotificationChannel `json:"channel"`
	Enabled   bool                `json:"enabled"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// PreferenceUpdate is the DTO for a player upserting one preference row.
type PreferenceUpdate struct {
	EventType EventType           `json:"event_type"`
	Channel   NotificationChannel `json:"channel"`
	Enabled   bool                `json:"enabled"`
}
