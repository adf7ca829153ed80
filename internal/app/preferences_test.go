package app

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

type prefsRepoStub struct {
	store.Repository

	player *domain.Player

	upserted  *domain.NotificationPreference
	upsertErr error
}

func (s *prefsRepoStub) FindPlayerByID(ctx context.Context, playerID uuid.UUID) (*domain.Player, error) {
	if s.player == nil {
		return nil, store.ErrPlayerNotFound
	}
	return s.player, nil
}

func (s *prefsRepoStub) UpsertNotificationPreference(ctx context.Context, pref domain.NotificationPreference) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = &pref
	return nil
}

func TestUpdateNotificationPreference_RejectsUnknownEventType(t *testing.T) {
	repo := &prefsRepoStub{player: &domain.Player{ID: uuid.New()}}
	svc, _ := newTestService(repo)

	_, err := svc.UpdateNotificationPreference(context.Background(), repo.player.ID, domain.PreferenceUpdate{
		EventType: domain.EventType("weather_alert"),
		Channel:   domain.ChannelEmail,
	})
	if err != ErrInvalidPreference {
		t.Fatalf("expected ErrInvalidPreference, got %v", err)
	}
	if repo.upserted != nil {
		t.Fatal("did not expect an upsert for an unknown event type")
	}
}

func TestUpdateNotificationPreference_RejectsUnknownChannel(t *testing.T) {
	repo := &prefsRepoStub{player: &domain.Player{ID: uuid.New()}}
	svc, _ := newTestService(repo)

	_, err := svc.UpdateNotificationPreference(context.Background(), repo.player.ID, domain.PreferenceUpdate{
		EventType: domain.EventRosterLocked,
		Channel:   domain.NotificationChannel("pigeon"),
	})
	if err != ErrInvalidPreference {
		t.Fatalf("expected ErrInvalidPreference, got %v", err)
	}
}

func TestUpdateNotificationPreference_RequiresKnownPlayer(t *testing.T) {
	repo := &prefsRepoStub{}
	svc, _ := newTestService(repo)

	_, err := svc.UpdateNotificationPreference(context.Background(), uuid.New(), domain.PreferenceUpdate{
		EventType: domain.EventRosterLocked,
		Channel:   domain.ChannelEmail,
		Enabled:   false,
	})
	if err != store.ErrPlayerNotFound {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestUpdateNotificationPreference_UpsertsExplicitRow(t *testing.T) {
	repo := &prefsRepoStub{player: &domain.Player{ID: uuid.New()}}
	svc, _ := newTestService(repo)

	pref, err := svc.UpdateNotificationPreference(context.Background(), repo.player.ID, domain.PreferenceUpdate{
		EventType: domain.EventPaymentReminder,
		Channel:   domain.ChannelSMS,
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.upserted == nil {
		t.Fatal("expected the preference to be persisted")
	}
	if repo.upserted.PlayerID != repo.player.ID {
		t.Fatalf("expected preference for player %s, got %s", repo.player.ID, repo.upserted.PlayerID)
	}
	if repo.upserted.EventType != domain.EventPaymentReminder || repo.upserted.Channel != domain.ChannelSMS {
		t.Fatalf("expected (payment_reminder_due, sms), got (%s, %s)", repo.upserted.EventType, repo.upserted.Channel)
	}
	if !repo.upserted.Enabled || !pref.Enabled {
		t.Fatal("expected the enabled flag to pass through")
	}
}
