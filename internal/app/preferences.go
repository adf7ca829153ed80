/**
 * @description
 * This file contains the notification preference operations players use to
 * opt in or out of individual (event, channel) pairs. Rows only exist for
 * explicit choices; the gate applies channel defaults when no row is present.
 */

package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

// ErrInvalidPreference rejects preference writes for unknown events or channels.
var ErrInvalidPreference = errors.New("unknown event type or channel")

var knownEventTypes = map[domain.EventType]bool{
	domain.EventSessionCreated:   true,
	domain.EventRosterLocked:     true,
	domain.EventPaymentReminder:  true,
	domain.EventWaitlistPromoted: true,
	domain.EventSessionCancelled: true,
}

// UpdateNotificationPreference upserts one explicit preference row for the
// calling player.
func (s *Service) UpdateNotificationPreference(ctx context.Context, playerID uuid.UUID, update domain.PreferenceUpdate) (*domain.NotificationPreference, error) {
	if !knownEventTypes[update.EventType] {
		return nil, ErrInvalidPreference
	}
	if update.Channel != domain.ChannelEmail && update.Channel != domain.ChannelSMS {
		return nil, ErrInvalidPreference
	}
	if _, err := s.repo.FindPlayerByID(ctx, playerID); err != nil {
		return nil, err
	}

	pref := domain.NotificationPreference{
		PlayerID:  playerID,
		EventType: update.EventType,
		Channel:   update.Channel,
		Enabled:   update.Enabled,
	}
	if err := s.repo.UpsertNotificationPreference(ctx, pref); err != nil {
		return nil, err
	}
	s.logger.Info("notification preference updated",
		"player_id", playerID, "event_type", update.EventType, "channel", update.Channel, "enabled", update.Enabled)
	return &pref, nil
}
