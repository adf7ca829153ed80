/**
 * @description
 * This file contains the owner-facing obligation ledger operations: manual
 * satisfaction, waiving and reversal. All three are status-gated in the store
 * so a double-submit or a stale client can never corrupt the ledger; this
 * layer adds owner authorization and input validation.
 */

package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

// authorizeObligationOwner loads an obligation and verifies the caller owns
// its session.
func (s *Service) authorizeObligationOwner(ctx context.Context, callerID, obligationID uuid.UUID) (*domain.Obligation, error) {
	obligation, err := s.repo.FindObligationByID(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	session, err := s.repo.FindSessionByID(ctx, obligation.SessionID)
	if err != nil {
		return nil, err
	}
	if session.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return obligation, nil
}

// SatisfyObligation marks a pending obligation satisfied on the owner's
// say-so, for payments that arrived outside the notice pipeline (cash, a
// different app, a notice the matcher could not place).
func (s *Service) SatisfyObligation(ctx context.Context, callerID, obligationID uuid.UUID) (*domain.Obligation, error) {
	if _, err := s.authorizeObligationOwner(ctx, callerID, obligationID); err != nil {
		return nil, err
	}

	updated, err := s.repo.MarkObligationSatisfied(ctx, obligationID, domain.SatisfiedViaManual)
	if err != nil {
		return nil, err
	}
	recordSatisfaction(domain.SatisfiedViaManual)
	s.logger.Info("obligation satisfied manually", "obligation_id", obligationID, "session_id", updated.SessionID)
	return updated, nil
}

// WaiveObligation forgives a pending obligation. The note is mandatory; a
// waive with no recorded reason is indistinguishable from a mistake later.
func (s *Service) WaiveObligation(ctx context.Context, callerID, obligationID uuid.UUID, note string) (*domain.Obligation, error) {
	if strings.TrimSpace(note) == "" {
		return nil, ErrNoteRequired
	}
	if _, err := s.authorizeObligationOwner(ctx, callerID, obligationID); err != nil {
		return nil, err
	}

	updated, err := s.repo.WaiveObligation(ctx, obligationID, note)
	if err != nil {
		return nil, err
	}
	s.logger.Info("obligation waived", "obligation_id", obligationID, "session_id", updated.SessionID)
	return updated, nil
}

// ReverseObligation undoes a satisfied obligation, typically after a waitlist
// replacement paid and the vacated player is owed their money back. Only
// satisfied obligations can reverse; the refund itself happens on the payment
// network, outside this system.
func (s *Service) ReverseObligation(ctx context.Context, callerID, obligationID uuid.UUID, reason string) (*domain.Obligation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrNoteRequired
	}
	if _, err := s.authorizeObligationOwner(ctx, callerID, obligationID); err != nil {
		return nil, err
	}

	updated, err := s.repo.ReverseObligation(ctx, obligationID, reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("obligation reversed", "obligation_id", obligationID, "session_id", updated.SessionID, "reason", reason)
	return updated, nil
}

// GetObligation returns one obligation. The session owner and the debtor may
// both read it.
func (s *Service) GetObligation(ctx context.Context, callerID, obligationID uuid.UUID) (*domain.Obligation, error) {
	obligation, err := s.repo.FindObligationByID(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if obligation.PlayerID == callerID {
		return obligation, nil
	}
	session, err := s.repo.FindSessionByID(ctx, obligation.SessionID)
	if err != nil {
		return nil, err
	}
	if session.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return obligation, nil
}
