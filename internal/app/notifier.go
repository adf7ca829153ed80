/**
 * @description
 * This file implements the notifier: the fan-out from one roster event to the
 * per-recipient, per-channel messages the downstream delivery service
 * consumes. Each approved (player, channel) pair becomes one message on the
 * events exchange under the routing key "notify.<channel>.<event_type>".
 *
 * @notes
 * - Delivery is best-effort by contract. Publish failures are logged and
 *   dropped; a roster mutation is never rolled back or failed because the
 *   broker hiccuped.
 */

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/metrics"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
	"github.com/berkmanco/pickleballers-sub001/pkg/rabbitmq"
)

var notificationChannels = []domain.NotificationChannel{domain.ChannelEmail, domain.ChannelSMS}

// Notifier publishes gate-approved notification events to the broker.
type Notifier struct {
	repo      store.Repository
	publisher rabbitmq.Publisher
	gate      *NotificationGate
	exchange  string
	logger    *slog.Logger
}

// NewNotifier creates a notifier publishing to the given exchange.
func NewNotifier(repo store.Repository, publisher rabbitmq.Publisher, gate *NotificationGate, exchange string, logger *slog.Logger) *Notifier {
	return &Notifier{
		repo:      repo,
		publisher: publisher,
		gate:      gate,
		exchange:  exchange,
		logger:    logger,
	}
}

// NotifyPlayers fans eventType out to the given players over every channel
// the gate approves.
func (n *Notifier) NotifyPlayers(ctx context.Context, eventType domain.EventType, sessionID uuid.UUID, players []domain.Player) {
	for i := range players {
		n.notifyOne(ctx, eventType, sessionID, &players[i])
	}
}

// NotifyIDs resolves player ids and fans eventType out to them. Unresolvable
// players are skipped with a log line.
func (n *Notifier) NotifyIDs(ctx context.Context, eventType domain.EventType, sessionID uuid.UUID, playerIDs []uuid.UUID) {
	for _, playerID := range playerIDs {
		player, err := n.repo.FindPlayerByID(ctx, playerID)
		if err != nil {
			n.logger.Error("failed to resolve notification recipient", "player_id", playerID, "event_type", eventType, "error", err)
			continue
		}
		n.notifyOne(ctx, eventType, sessionID, player)
	}
}

func (n *Notifier) notifyOne(ctx context.Context, eventType domain.EventType, sessionID uuid.UUID, player *domain.Player) {
	for _, channel := range notificationChannels {
		if !n.gate.Allows(ctx, player, eventType, channel) {
			continue
		}

		event := domain.NotificationEvent{
			EventID:    uuid.New(),
			EventType:  eventType,
			Channel:    channel,
			PlayerID:   player.ID,
			SessionID:  sessionID,
			OccurredAt: time.Now().UTC(),
		}
		routingKey := fmt.Sprintf("notify.%s.%s", channel, eventType)

		if err := n.publisher.Publish(ctx, n.exchange, routingKey, event); err != nil {
			n.logger.Error("failed to publish notification event",
				"routing_key", routingKey, "player_id", player.ID, "session_id", sessionID, "error", err)
			continue
		}
		metrics.EventsPublished.WithLabelValues(string(eventType), string(channel)).Inc()
	}
}
