/**
 * @description
 * This file defines the `Repository` interface: the contract for all data
 * access the roster engine needs. The interface keeps the business logic
 * decoupled from PostgreSQL and lets tests substitute small stubs.
 *
 * @notes
 * - The *Atomic methods run an entire invariant inside one database
 *   transaction (row lock on the session, state checks, dependent writes).
 *   Splitting them into smaller calls would reintroduce the races the locks
 *   exist to prevent, so the interface exposes them whole.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

// ReconciliationListOptions narrows the reconciliation record listing.
type ReconciliationListOptions struct {
	SessionHint *uuid.UUID
	Method      *domain.MatchMethod
	Limit       int
	Offset      int
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Player and membership methods (tables owned by the identity service)
	FindPlayerByID(ctx context.Context, playerID uuid.UUID) (*domain.Player, error)
	IsActiveGroupMember(ctx context.Context, groupID, playerID uuid.UUID) (bool, error)
	ListActiveGroupMembers(ctx context.Context, groupID uuid.UUID) ([]domain.Player, error)

	// Notification preference methods
	GetNotificationPreference(ctx context.Context, playerID uuid.UUID, eventType domain.EventType, channel domain.NotificationChannel) (*domain.NotificationPreference, error)
	UpsertNotificationPreference(ctx context.Context, pref domain.NotificationPreference) error

	// Session methods
	CreateSessionWithHost(ctx context.Context, session *domain.Session) error
	FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	ListSessionsByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	CancelSessionAtomic(ctx context.Context, sessionID uuid.UUID, reason string) (*domain.Session, error)
	CompleteElapsedSessions(ctx context.Context, now time.Time) ([]domain.Session, error)
	ListDeadlineCancelCandidates(ctx context.Context, now time.Time) ([]domain.Session, error)
	CancelIfBelowMinimumAtomic(ctx context.Context, sessionID uuid.UUID, now time.Time, reason string) (*domain.Session, error)

	// Roster methods
	FindSignup(ctx context.Context, sessionID, playerID uuid.UUID) (*domain.Signup, error)
	ListSignupsBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Signup, error)
	ApplySignupChangeAtomic(ctx context.Context, sessionID, playerID uuid.UUID, role domain.SignupRole, status domain.SignupStatus) (*domain.SignupChange, error)
	LockRosterAtomic(ctx context.Context, sessionID uuid.UUID) (*domain.Session, []domain.Obligation, error)
	UnlockRosterAtomic(ctx context.Context, sessionID uuid.UUID) (*domain.Session, []domain.Obligation, error)
	FillVacanciesAtomic(ctx context.Context, sessionID uuid.UUID, newMaxPlayers *int) ([]domain.Promotion, error)

	// Obligation methods
	FindObligationByID(ctx context.Context, obligationID uuid.UUID) (*domain.Obligation, error)
	FindObligationByReferenceCode(ctx context.Context, code uuid.UUID) (*domain.Obligation, error)
	ListObligationsBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Obligation, error)
	ListObligationsByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.Obligation, error)
	SumObligationCentsByStatus(ctx context.Context, sessionID uuid.UUID) (map[domain.ObligationStatus]int64, error)
	MarkObligationSatisfied(ctx context.Context, obligationID uuid.UUID, via domain.SatisfiedVia) (*domain.Obligation, error)
	WaiveObligation(ctx context.Context, obligationID uuid.UUID, note string) (*domain.Obligation, error)
	ReverseObligation(ctx context.Context, obligationID uuid.UUID, reason string) (*domain.Obligation, error)

	// Reconciliation methods
	FindFuzzyMatchCandidates(ctx context.Context, amountCents, toleranceCents int64, sessionHint *uuid.UUID) ([]domain.MatchCandidate, error)
	InsertReconciliationRecord(ctx context.Context, record *domain.ReconciliationRecord) error
	ListReconciliationRecords(ctx context.Context, opts ReconciliationListOptions) ([]domain.ReconciliationRecord, error)

	// Reminder methods
	ListReminderTargets(ctx context.Context, now time.Time, lead time.Duration, kind string) ([]domain.ReminderTarget, error)
	RecordPaymentReminder(ctx context.Context, obligationID uuid.UUID, kind string) (bool, error)
}
