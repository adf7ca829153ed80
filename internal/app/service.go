/**
 * @description
 * This file contains the core business logic for the session roster service.
 * The `Service` struct orchestrates session lifecycle operations, coordinating
 * between the database repository, the notification pipeline and the pure
 * cost model.
 *
 * Key features:
 * - Session proposal, editing, cancellation and the cost summary read model.
 * - Owner authorization checks for every mutating session operation.
 * - Notification fan-out after state changes, never before commit and never
 *   blocking the change itself.
 *
 * @dependencies
 * - context, log/slog, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store, internal/pricing: Domain models, data
 *   access and the cost model.
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
	"github.com/berkmanco/pickleballers-sub001/internal/pricing"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

// MatcherSettings carries the reconciliation tuning knobs from configuration.
type MatcherSettings struct {
	AmountToleranceCents int64
	SenderDistanceMax    int
}

// Service provides the core business logic for sessions, rosters,
// obligations and reconciliation.
type Service struct {
	repo     store.Repository
	notifier *Notifier
	logger   *slog.Logger
	matcher  MatcherSettings
}

// NewService creates a new roster service instance.
func NewService(repo store.Repository, notifier *Notifier, logger *slog.Logger, matcher MatcherSettings) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		matcher:  matcher,
	}
}

func validateSessionParams(courts int, ownerRate, splitRate int64, minPlayers, maxPlayers, durationMinutes int, scheduledAt time.Time) error {
	if courts < 1 {
		return ErrInvalidCourtCount
	}
	if ownerRate < 0 || splitRate < 0 {
		return ErrInvalidRates
	}
	if minPlayers < 1 || maxPlayers < minPlayers {
		return ErrInvalidPlayerBounds
	}
	if scheduledAt.IsZero() || durationMinutes <= 0 {
		return ErrInvalidSchedule
	}
	return nil
}

// ProposeSession creates a session in the proposed state with the owner's
// committed host signup, then invites the whole group.
func (s *Service) ProposeSession(ctx context.Context, ownerID uuid.UUID, req domain.CreateSessionRequest) (*domain.Session, error) {
	if err := validateSessionParams(req.Courts, req.OwnerRateCents, req.SplitRateCents, req.MinPlayers, req.MaxPlayers, req.DurationMinutes, req.ScheduledAt); err != nil {
		return nil, err
	}

	isMember, err := s.repo.IsActiveGroupMember(ctx, req.GroupID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}

	session := &domain.Session{
		ID:              uuid.New(),
		GroupID:         req.GroupID,
		OwnerID:         ownerID,
		Title:           req.Title,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Courts:          req.Courts,
		OwnerRateCents:  req.OwnerRateCents,
		SplitRateCents:  req.SplitRateCents,
		MinPlayers:      req.MinPlayers,
		MaxPlayers:      req.MaxPlayers,
		Status:          domain.SessionProposed,
		PaymentDeadline: req.PaymentDeadline,
	}
	if err := s.repo.CreateSessionWithHost(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session proposed", "session_id", session.ID, "group_id", session.GroupID, "owner_id", ownerID)

	members, err := s.repo.ListActiveGroupMembers(ctx, session.GroupID)
	if err != nil {
		s.logger.Error("failed to list group members for notification", "session_id", session.ID, "error", err)
		return session, nil
	}
	s.notifier.NotifyPlayers(ctx, domain.EventSessionCreated, session.ID, members)

	return session, nil
}

// GetSession returns one session by id.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	return s.repo.FindSessionByID(ctx, sessionID)
}

// ListGroupSessions returns a group's sessions for the caller, who must be a member.
func (s *Service) ListGroupSessions(ctx context.Context, callerID, groupID uuid.UUID, limit, offset int) ([]domain.Session, error) {
	isMember, err := s.repo.IsActiveGroupMember(ctx, groupID, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}
	return s.repo.ListSessionsByGroup(ctx, groupID, limit, offset)
}

// ListSessionRoster returns the signups of a session.
func (s *Service) ListSessionRoster(ctx context.Context, sessionID uuid.UUID) ([]domain.Signup, error) {
	if _, err := s.repo.FindSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListSignupsBySession(ctx, sessionID)
}

// UpdateSession applies owner edits. While the roster is locked, anything that
// would invalidate the frozen share (courts, rates, schedule, lowered bounds)
// is rejected; raising max players is allowed and immediately fills freed
// capacity from the waitlist. The raise itself is written inside the fill
// transaction, so raised capacity is never persisted unfilled.
func (s *Service) UpdateSession(ctx context.Context, callerID, sessionID uuid.UUID, req domain.UpdateSessionRequest) (*domain.Session, []domain.Promotion, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.OwnerID != callerID {
		return nil, nil, ErrForbidden
	}
	if session.Status != domain.SessionProposed && session.Status != domain.SessionConfirmed {
		return nil, nil, &store.InvalidTransitionError{Current: string(session.Status), Requested: "edit"}
	}

	maxRaised := false
	if session.RosterLocked {
		if req.ScheduledAt != nil || req.DurationMinutes != nil || req.Courts != nil ||
			req.OwnerRateCents != nil || req.SplitRateCents != nil || req.MinPlayers != nil {
			return nil, nil, ErrLockedFieldEdit
		}
		if req.MaxPlayers != nil {
			if *req.MaxPlayers < session.MaxPlayers {
				return nil, nil, ErrLockedFieldEdit
			}
			maxRaised = *req.MaxPlayers > session.MaxPlayers
		}
	} else {
		if req.ScheduledAt != nil {
			session.ScheduledAt = *req.ScheduledAt
		}
		if req.DurationMinutes != nil {
			session.DurationMinutes = *req.DurationMinutes
		}
		if req.Courts != nil {
			session.Courts = *req.Courts
		}
		if req.OwnerRateCents != nil {
			session.OwnerRateCents = *req.OwnerRateCents
		}
		if req.SplitRateCents != nil {
			session.SplitRateCents = *req.SplitRateCents
		}
		if req.MinPlayers != nil {
			session.MinPlayers = *req.MinPlayers
		}
		if req.MaxPlayers != nil {
			maxRaised = *req.MaxPlayers > session.MaxPlayers
			if !maxRaised {
				session.MaxPlayers = *req.MaxPlayers
			}
		}
	}
	if req.Title != nil {
		session.Title = *req.Title
	}
	if req.PaymentDeadline != nil {
		session.PaymentDeadline = req.PaymentDeadline
	}

	targetMax := session.MaxPlayers
	if req.MaxPlayers != nil {
		targetMax = *req.MaxPlayers
	}
	if err := validateSessionParams(session.Courts, session.OwnerRateCents, session.SplitRateCents, session.MinPlayers, targetMax, session.DurationMinutes, session.ScheduledAt); err != nil {
		return nil, nil, err
	}

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, nil, err
	}

	var promotions []domain.Promotion
	if maxRaised {
		promotions, err = s.repo.FillVacanciesAtomic(ctx, sessionID, req.MaxPlayers)
		if err != nil {
			return nil, nil, err
		}
		session.MaxPlayers = *req.MaxPlayers
		s.notifyPromotions(ctx, sessionID, promotions)
	}

	s.logger.Info("session updated", "session_id", sessionID, "promotions", len(promotions))
	return session, promotions, nil
}

// CancelSession moves a session to cancelled and notifies every player still
// on the roster. Pending obligations stay in place: forgiving or keeping them
// is the owner's explicit decision afterwards.
func (s *Service) CancelSession(ctx context.Context, callerID, sessionID uuid.UUID, reason string) (*domain.Session, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OwnerID != callerID {
		return nil, ErrForbidden
	}

	cancelled, err := s.repo.CancelSessionAtomic(ctx, sessionID, reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session cancelled", "session_id", sessionID, "reason", reason)

	s.notifyRoster(ctx, domain.EventSessionCancelled, sessionID, scopeEveryone)
	return cancelled, nil
}

// DeleteSession removes a session and, through the schema cascade, its signups
// and obligations. Cancellation is the ordinary way to call a session off;
// deletion is for sessions created by mistake, and it erases the payment
// history, so only the owner may do it.
func (s *Service) DeleteSession(ctx context.Context, callerID, sessionID uuid.UUID) error {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.OwnerID != callerID {
		return ErrForbidden
	}

	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", "session_id", sessionID, "status", session.Status)
	return nil
}

// GetCostSummary returns the live projected split while the roster is open,
// or the frozen share plus ledger rollups once locked.
func (s *Service) GetCostSummary(ctx context.Context, sessionID uuid.UUID) (*domain.CostSummary, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	signups, err := s.repo.ListSignupsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	committedGuests := 0
	for _, signup := range signups {
		if signup.Status == domain.SignupCommitted && signup.Role == domain.RoleGuest {
			committedGuests++
		}
	}

	params := pricing.CostParams{
		Courts:         session.Courts,
		OwnerRateCents: session.OwnerRateCents,
		SplitRateCents: session.SplitRateCents,
	}
	breakdown := pricing.Breakdown(params, committedGuests)

	summary := &domain.CostSummary{
		SessionID:          session.ID,
		Locked:             session.RosterLocked,
		Courts:             session.Courts,
		OwnerCostCents:     breakdown.OwnerCostCents,
		SplitCostCents:     breakdown.SplitCostCents,
		CommittedGuests:    committedGuests,
		GuestShareCents:    breakdown.GuestShareCents,
		HostRemainderCents: breakdown.HostRemainderCents,
	}

	if session.RosterLocked && session.GuestShareCents != nil {
		summary.GuestShareCents = *session.GuestShareCents
		summary.HostRemainderCents = breakdown.SplitCostCents - *session.GuestShareCents*int64(committedGuests)

		sums, err := s.repo.SumObligationCentsByStatus(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		summary.PendingCents = sums[domain.ObligationPending]
		summary.SatisfiedCents = sums[domain.ObligationSatisfied]
		summary.WaivedCents = sums[domain.ObligationWaived]
		summary.ReversedCents = sums[domain.ObligationReversed]
	}

	return summary, nil
}

// rosterScope selects which signups a roster-wide notification reaches.
type rosterScope int

const (
	scopeCommitted rosterScope = iota // committed signups only
	scopeEveryone                     // every signup, withdrawn included
)

// notifyRoster fans one event out to the session's players. A lock concerns
// only the committed roster; a cancellation goes to every signup, withdrawn
// included: a player who dropped out still planned around the session.
func (s *Service) notifyRoster(ctx context.Context, eventType domain.EventType, sessionID uuid.UUID, scope rosterScope) {
	signups, err := s.repo.ListSignupsBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to list signups for notification", "session_id", sessionID, "event_type", eventType, "error", err)
		return
	}
	var playerIDs []uuid.UUID
	for _, signup := range signups {
		if scope == scopeEveryone || signup.Status == domain.SignupCommitted {
			playerIDs = append(playerIDs, signup.PlayerID)
		}
	}
	s.notifier.NotifyIDs(ctx, eventType, sessionID, playerIDs)
}

func (s *Service) notifyPromotions(ctx context.Context, sessionID uuid.UUID, promotions []domain.Promotion) {
	for _, promotion := range promotions {
		metrics.WaitlistPromotions.Inc()
		s.notifier.NotifyIDs(ctx, domain.EventWaitlistPromoted, sessionID, []uuid.UUID{promotion.Signup.PlayerID})
	}
}
