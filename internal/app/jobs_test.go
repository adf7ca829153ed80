package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

type sweepRepoStub struct {
	store.Repository

	completed      []domain.Session
	completedErr   error
	completeCalled bool
	completeCtx    context.Context

	candidates    []domain.Session
	candidatesErr error
	cancelResults map[uuid.UUID]*domain.Session
	cancelCalls   []uuid.UUID

	targets     []domain.ReminderTarget
	targetsErr  error
	claimDenied map[uuid.UUID]bool
	claimCalls  []uuid.UUID

	signups map[uuid.UUID][]domain.Signup
	players map[uuid.UUID]*domain.Player
}

func (s *sweepRepoStub) CompleteElapsedSessions(ctx context.Context, now time.Time) ([]domain.Session, error) {
	s.completeCalled = true
	s.completeCtx = ctx
	if s.completedErr != nil {
		return nil, s.completedErr
	}
	return s.completed, nil
}

func (s *sweepRepoStub) ListDeadlineCancelCandidates(ctx context.Context, now time.Time) ([]domain.Session, error) {
	if s.candidatesErr != nil {
		return nil, s.candidatesErr
	}
	return s.candidates, nil
}

func (s *sweepRepoStub) CancelIfBelowMinimumAtomic(ctx context.Context, sessionID uuid.UUID, now time.Time, reason string) (*domain.Session, error) {
	s.cancelCalls = append(s.cancelCalls, sessionID)
	return s.cancelResults[sessionID], nil
}

func (s *sweepRepoStub) ListReminderTargets(ctx context.Context, now time.Time, lead time.Duration, kind string) ([]domain.ReminderTarget, error) {
	if s.targetsErr != nil {
		return nil, s.targetsErr
	}
	return s.targets, nil
}

func (s *sweepRepoStub) RecordPaymentReminder(ctx context.Context, obligationID uuid.UUID, kind string) (bool, error) {
	s.claimCalls = append(s.claimCalls, obligationID)
	return !s.claimDenied[obligationID], nil
}

func (s *sweepRepoStub) ListSignupsBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Signup, error) {
	return s.signups[sessionID], nil
}

func (s *sweepRepoStub) FindPlayerByID(ctx context.Context, playerID uuid.UUID) (*domain.Player, error) {
	if player, ok := s.players[playerID]; ok {
		return player, nil
	}
	return nil, store.ErrPlayerNotFound
}

func (s *sweepRepoStub) GetNotificationPreference(ctx context.Context, playerID uuid.UUID, eventType domain.EventType, channel domain.NotificationChannel) (*domain.NotificationPreference, error) {
	return nil, nil
}

func newSweepJobs(repo store.Repository) (*Jobs, *publisherStub) {
	svc, publisher := newTestService(repo)
	return NewJobs(svc, testLogger(), 24*time.Hour), publisher
}

func TestCompleteElapsedSessions_RunsSweep(t *testing.T) {
	repo := &sweepRepoStub{
		completed: []domain.Session{
			{ID: uuid.New(), Status: domain.SessionCompleted},
			{ID: uuid.New(), Status: domain.SessionCompleted},
		},
	}
	jobs, _ := newSweepJobs(repo)

	jobs.CompleteElapsedSessions()

	if !repo.completeCalled {
		t.Fatal("expected the completion sweep to hit the store")
	}
	if _, ok := repo.completeCtx.Deadline(); !ok {
		t.Fatal("expected the sweep to run under a deadline")
	}
}

func TestCancelBelowMinimumSessions_SkipsLostRaces(t *testing.T) {
	raced := domain.Session{ID: uuid.New(), Status: domain.SessionProposed, MinPlayers: 4}
	cancellable := domain.Session{ID: uuid.New(), Status: domain.SessionProposed, MinPlayers: 4}
	player := emailPlayer("roster")

	cancelled := cancellable
	cancelled.Status = domain.SessionCancelled

	repo := &sweepRepoStub{
		candidates: []domain.Session{raced, cancellable},
		cancelResults: map[uuid.UUID]*domain.Session{
			cancellable.ID: &cancelled,
			// raced.ID absent: a commit landed between the listing and the
			// row lock, so the atomic cancel declined.
		},
		signups: map[uuid.UUID][]domain.Signup{
			cancelled.ID: {{SessionID: cancelled.ID, PlayerID: player.ID, Status: domain.SignupCommitted}},
		},
		players: map[uuid.UUID]*domain.Player{player.ID: &player},
	}
	jobs, publisher := newSweepJobs(repo)

	jobs.CancelBelowMinimumSessions()

	if len(repo.cancelCalls) != 2 {
		t.Fatalf("expected both candidates attempted, got %d", len(repo.cancelCalls))
	}
	if got := publisher.count("notify.email.session_cancelled"); got != 1 {
		t.Fatalf("expected one cancellation notification, got %d (%v)", got, publisher.published)
	}
}

func TestCancelBelowMinimumSessions_ListFailureStopsSweep(t *testing.T) {
	repo := &sweepRepoStub{candidatesErr: errors.New("db unavailable")}
	jobs, publisher := newSweepJobs(repo)

	jobs.CancelBelowMinimumSessions()

	if len(repo.cancelCalls) != 0 {
		t.Fatal("did not expect cancel attempts after a listing failure")
	}
	if len(publisher.published) != 0 {
		t.Fatalf("did not expect notifications, got %v", publisher.published)
	}
}

func TestSendPaymentReminders_ClaimGateSkipsDuplicates(t *testing.T) {
	sessionID := uuid.New()
	first := emailPlayer("first")
	second := emailPlayer("second")
	firstTarget := domain.ReminderTarget{ObligationID: uuid.New(), SessionID: sessionID, PlayerID: first.ID}
	secondTarget := domain.ReminderTarget{ObligationID: uuid.New(), SessionID: sessionID, PlayerID: second.ID}

	repo := &sweepRepoStub{
		targets: []domain.ReminderTarget{firstTarget, secondTarget},
		claimDenied: map[uuid.UUID]bool{
			secondTarget.ObligationID: true,
		},
		players: map[uuid.UUID]*domain.Player{
			first.ID:  &first,
			second.ID: &second,
		},
	}
	jobs, publisher := newSweepJobs(repo)

	jobs.SendPaymentReminders()

	if len(repo.claimCalls) != 2 {
		t.Fatalf("expected both targets claimed, got %d", len(repo.claimCalls))
	}
	if got := publisher.count("notify.email.payment_reminder_due"); got != 1 {
		t.Fatalf("expected one reminder notification, got %d (%v)", got, publisher.published)
	}
}

func TestSendPaymentReminders_NoTargetsIsQuiet(t *testing.T) {
	repo := &sweepRepoStub{}
	jobs, publisher := newSweepJobs(repo)

	jobs.SendPaymentReminders()

	if len(repo.claimCalls) != 0 {
		t.Fatal("did not expect claim attempts without targets")
	}
	if len(publisher.published) != 0 {
		t.Fatalf("did not expect notifications, got %v", publisher.published)
	}
}
