/**
 * @description
 * This file defines the typed notification events this service emits and the
 * envelope they travel in. The downstream notifier owns templating and actual
 * delivery; the envelope carries addressing only.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the notification events the roster engine can emit.
type EventType string

const (
	EventSessionCreated   EventType = "session_created"
	EventRosterLocked     EventType = "roster_locked"
	EventPaymentReminder  EventType = "payment_reminder_due"
	EventWaitlistPromoted EventType = "waitlist_promoted"
	EventSessionCancelled EventType = "session_cancelled"
)

// NotificationEvent is the message published per (recipient, channel) after
// the notification gate has approved the pair. Routing key is
// "notify.<channel>.<event_type>" on the events exchange.
type NotificationEvent struct {
	EventID    uuid.UUID           `json:"event_id"`
	EventType  EventType           `json:"event_type"`
	Channel    NotificationChannel `json:"channel"`
	PlayerID   uuid.UUID           `json:"player_id"`
	SessionID  uuid.UUID           `json:"session_id"`
	OccurredAt time.Time           `json:"occurred_at"`
}
