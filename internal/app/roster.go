/**
 * @description
 * This file contains the roster business logic: RSVPs, owner-managed signups,
 * and the lock/unlock cycle that freezes the per-guest share and mints payment
 * obligations. The atomicity itself lives in the store's *Atomic methods; this
 * layer handles authorization, validation and the notifications that follow a
 * successful change.
 */

package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/metrics"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

// RSVP applies a player's own status change to a session roster. Committing to
// a full roster routes the player to the waitlist; withdrawing from a
// committed slot promotes the longest-waiting tentative player.
func (s *Service) RSVP(ctx context.Context, playerID, sessionID uuid.UUID, status domain.SignupStatus) (*domain.SignupChange, error) {
	switch status {
	case domain.SignupCommitted, domain.SignupTentative, domain.SignupWithdrawn:
	default:
		return nil, ErrInvalidSignupStatus
	}

	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.repo.IsActiveGroupMember(ctx, session.GroupID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}

	change, err := s.repo.ApplySignupChangeAtomic(ctx, sessionID, playerID, domain.RoleGuest, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("signup changed",
		"session_id", sessionID, "player_id", playerID, "status", change.Signup.Status,
		"waitlisted", change.RoutedToWaitlist, "promoted", change.Promotion != nil,
		"obligation_minted", change.Obligation != nil)

	if change.Promotion != nil {
		s.notifyPromotions(ctx, sessionID, []domain.Promotion{*change.Promotion})
	}
	return change, nil
}

// AddSignup lets the session owner place another group member on the roster,
// subject to the same capacity routing as a self-service RSVP.
func (s *Service) AddSignup(ctx context.Context, callerID, sessionID uuid.UUID, req domain.AddSignupRequest) (*domain.SignupChange, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return s.RSVP(ctx, req.PlayerID, sessionID, req.Status)
}

// LockRoster freezes the roster: the session moves to confirmed, the per-guest
// share is computed once and stored, and one pending obligation is minted per
// committed guest. Only the owner may lock.
func (s *Service) LockRoster(ctx context.Context, callerID, sessionID uuid.UUID) (*domain.Session, []domain.Obligation, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.OwnerID != callerID {
		return nil, nil, ErrForbidden
	}

	locked, obligations, err := s.repo.LockRosterAtomic(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	share := int64(0)
	if locked.GuestShareCents != nil {
		share = *locked.GuestShareCents
	}
	s.logger.Info("roster locked",
		"session_id", sessionID, "guest_share_cents", share, "obligations", len(obligations))

	s.notifyRoster(ctx, domain.EventRosterLocked, sessionID, scopeCommitted)
	return locked, obligations, nil
}

// UnlockRoster reverts a confirmed session to proposed. Every obligation
// minted at lock time is removed; the deleted rows are returned so the caller
// can surface which satisfied payments now need refunding out of band.
func (s *Service) UnlockRoster(ctx context.Context, callerID, sessionID uuid.UUID) (*domain.Session, []domain.Obligation, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.OwnerID != callerID {
		return nil, nil, ErrForbidden
	}

	unlocked, removed, err := s.repo.UnlockRosterAtomic(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	satisfied := 0
	for _, o := range removed {
		if o.Status == domain.ObligationSatisfied {
			satisfied++
		}
	}
	s.logger.Info("roster unlocked",
		"session_id", sessionID, "obligations_removed", len(removed), "satisfied_needing_refund", satisfied)

	return unlocked, removed, nil
}

// GetSignup returns one player's signup on a session.
func (s *Service) GetSignup(ctx context.Context, sessionID, playerID uuid.UUID) (*domain.Signup, error) {
	signup, err := s.repo.FindSignup(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	if signup == nil {
		return nil, store.ErrSignupNotFound
	}
	return signup, nil
}

// ListPlayerObligations returns a player's own obligations across sessions.
func (s *Service) ListPlayerObligations(ctx context.Context, playerID uuid.UUID) ([]domain.Obligation, error) {
	return s.repo.ListObligationsByPlayer(ctx, playerID)
}

// ListSessionObligations returns a session's ledger; only the owner may read it.
func (s *Service) ListSessionObligations(ctx context.Context, callerID, sessionID uuid.UUID) ([]domain.Obligation, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return s.repo.ListObligationsBySession(ctx, sessionID)
}

// recordSatisfaction bumps the satisfaction counter under its via label.
func recordSatisfaction(via domain.SatisfiedVia) {
	metrics.ObligationsSatisfied.WithLabelValues(string(via)).Inc()
}
