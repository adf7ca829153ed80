/**
 * @description
 * This file implements the notification gate: the single decision point for
 * whether one event may be sent to one player over one channel.
 *
 * Key features:
 * - Channel defaults: email is opt-out (on unless disabled), sms is opt-in
 *   (off unless enabled). A missing preference row means the default applies.
 * - Contact details gate the channel regardless of preference: no email
 *   address means no email, no phone number means no sms.
 * - Preference lookup failures deny the send. A lost notification is
 *   recoverable; a send against an explicit opt-out is not.
 */

package app

import (
	"context"
	"log/slog"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

// NotificationGate decides whether a (player, event, channel) triple may be
// published to the downstream notifier.
type NotificationGate struct {
	repo   store.Repository
	logger *slog.Logger
}

// NewNotificationGate creates a gate backed by the given repository.
func NewNotificationGate(repo store.Repository, logger *slog.Logger) *NotificationGate {
	return &NotificationGate{repo: repo, logger: logger}
}

// channelDefault returns whether a channel is enabled absent any explicit
// preference. Email is on by default; sms costs money and is off.
func channelDefault(channel domain.NotificationChannel) bool {
	return channel == domain.ChannelEmail
}

// hasContact reports whether the player has the contact detail the channel
// needs.
func hasContact(player *domain.Player, channel domain.NotificationChannel) bool {
	switch channel {
	case domain.ChannelEmail:
		return player.Email != nil && *player.Email != ""
	case domain.ChannelSMS:
		return player.Phone != nil && *player.Phone != ""
	default:
		return false
	}
}

// Allows reports whether eventType may be delivered to the player over the
// channel. It never returns an error: a preference lookup failure counts as
// a deny so a flaky database can only suppress sends, never violate an opt-out.
func (g *NotificationGate) Allows(ctx context.Context, player *domain.Player, eventType domain.EventType, channel domain.NotificationChannel) bool {
	if player == nil || !hasContact(player, channel) {
		return false
	}

	pref, err := g.repo.GetNotificationPreference(ctx, player.ID, eventType, channel)
	if err != nil {
		g.logger.Error("preference lookup failed, suppressing notification",
			"player_id", player.ID, "event_type", eventType, "channel", channel, "error", err)
		return false
	}
	if pref == nil {
		return channelDefault(channel)
	}
	return pref.Enabled
}
