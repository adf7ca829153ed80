/**
 * @description
 * This file implements the transactional roster operations: locking and
 * unlocking a roster, RSVP changes with capacity routing, waitlist promotion,
 * and the cancellation paths. Each public method is one database transaction.
 *
 * @notes
 * - Every mutation acquires the session row with SELECT ... FOR UPDATE first.
 *   The session row is the serialization point for the whole roster, which is
 *   what makes "count committed, then insert obligations" safe against a
 *   concurrent withdraw.
 * - Waitlist ranks come from the sessions.waitlist_seq counter and are never
 *   reused, so ORDER BY waitlist_rank ASC LIMIT 1 always yields the
 *   longest-waiting tentative signup.
 * - Promotions on a locked roster price the new obligation from the frozen
 *   guest_share_cents captured at lock time, never from a recomputed split.
 *
 * @dependencies
 * - context, fmt: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain, internal/pricing: Domain models and the pure cost model.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/pricing"
)

// lockSessionRow loads and locks the session row inside tx.
func lockSessionRow(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`
	session, err := scanSession(tx.QueryRow(ctx, query, sessionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to lock session row: %w", err)
	}
	return session, nil
}

func countCommittedTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM signups WHERE session_id = $1 AND status = $2`
	if err := tx.QueryRow(ctx, query, sessionID, domain.SignupCommitted).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count committed signups: %w", err)
	}
	return count, nil
}

// nextWaitlistRank advances the session's monotonic rank counter and returns
// the new value. Called only while holding the session row lock.
func nextWaitlistRank(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (int, error) {
	var rank int
	query := `UPDATE sessions SET waitlist_seq = waitlist_seq + 1, updated_at = NOW() WHERE id = $1 RETURNING waitlist_seq`
	if err := tx.QueryRow(ctx, query, sessionID).Scan(&rank); err != nil {
		return 0, fmt.Errorf("failed to advance waitlist counter: %w", err)
	}
	return rank, nil
}

func findSignupTx(ctx context.Context, tx pgx.Tx, sessionID, playerID uuid.UUID) (*domain.Signup, error) {
	query := `SELECT ` + signupColumns + ` FROM signups WHERE session_id = $1 AND player_id = $2`
	signup, err := scanSignup(tx.QueryRow(ctx, query, sessionID, playerID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return signup, nil
}

// upsertSignupTx inserts a new signup row or moves an existing one to the
// given status. Role is fixed at insert time and never changes afterwards.
func upsertSignupTx(ctx context.Context, tx pgx.Tx, existing *domain.Signup, sessionID, playerID uuid.UUID, role domain.SignupRole, status domain.SignupStatus, rank *int) (*domain.Signup, error) {
	if existing == nil {
		signup := &domain.Signup{
			ID:           uuid.New(),
			SessionID:    sessionID,
			PlayerID:     playerID,
			Role:         role,
			Status:       status,
			WaitlistRank: rank,
		}
		query := `
			INSERT INTO signups (id, session_id, player_id, role, status, waitlist_rank, status_changed_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING status_changed_at, created_at
		`
		err := tx.QueryRow(ctx, query, signup.ID, sessionID, playerID, role, status, rank).
			Scan(&signup.StatusChangedAt, &signup.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert signup: %w", err)
		}
		return signup, nil
	}

	query := `
		UPDATE signups SET status = $2, waitlist_rank = $3, status_changed_at = NOW()
		WHERE id = $1
		RETURNING status_changed_at
	`
	updated := *existing
	updated.Status = status
	updated.WaitlistRank = rank
	if err := tx.QueryRow(ctx, query, existing.ID, status, rank).Scan(&updated.StatusChangedAt); err != nil {
		return nil, fmt.Errorf("failed to update signup: %w", err)
	}
	return &updated, nil
}

// lockedGuestShare returns the frozen per-guest share when a committed entry
// on this session must carry an obligation: the roster is locked, the entrant
// is a guest and the share was priced at lock time.
func lockedGuestShare(session *domain.Session, role domain.SignupRole) (int64, bool) {
	if !session.RosterLocked || role != domain.RoleGuest || session.GuestShareCents == nil {
		return 0, false
	}
	return *session.GuestShareCents, true
}

// hasLiveObligationTx reports whether the player already carries a pending or
// satisfied obligation on the session, so a guest re-entering a locked roster
// is not charged twice.
func hasLiveObligationTx(ctx context.Context, tx pgx.Tx, sessionID, playerID uuid.UUID) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM obligations WHERE session_id = $1 AND player_id = $2 AND status IN ($3, $4)`
	if err := tx.QueryRow(ctx, query, sessionID, playerID, domain.ObligationPending, domain.ObligationSatisfied).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check existing obligation: %w", err)
	}
	return n > 0, nil
}

// insertObligationTx creates one pending obligation with a fresh correlation
// reference code.
func insertObligationTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, signup domain.Signup, amountCents int64) (*domain.Obligation, error) {
	obligation := &domain.Obligation{
		ID:            uuid.New(),
		SessionID:     sessionID,
		SignupID:      signup.ID,
		PlayerID:      signup.PlayerID,
		AmountCents:   amountCents,
		Status:        domain.ObligationPending,
		ReferenceCode: uuid.New(),
	}
	query := `
		INSERT INTO obligations (id, session_id, signup_id, player_id, amount_cents, status, reference_code, replacement_found)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING created_at
	`
	err := tx.QueryRow(ctx, query,
		obligation.ID, obligation.SessionID, obligation.SignupID, obligation.PlayerID,
		obligation.AmountCents, obligation.Status, obligation.ReferenceCode,
	).Scan(&obligation.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert obligation: %w", err)
	}
	return obligation, nil
}

// promoteLowestRank fills one open committed slot from the waitlist, if the
// roster has capacity and a candidate exists. excludeSignupID keeps a signup
// that just moved itself to tentative from being promoted straight back;
// vacatedPlayerID flags that player's obligation so the owner sees a refund
// is owed once the replacement pays.
func promoteLowestRank(ctx context.Context, tx pgx.Tx, session *domain.Session, excludeSignupID, vacatedPlayerID uuid.UUID) (*domain.Promotion, error) {
	committed, err := countCommittedTx(ctx, tx, session.ID)
	if err != nil {
		return nil, err
	}
	if committed >= session.MaxPlayers {
		return nil, nil
	}

	query := `SELECT ` + signupColumns + `
		FROM signups
		WHERE session_id = $1 AND status = $2 AND id <> $3
		ORDER BY waitlist_rank ASC
		LIMIT 1`
	candidate, err := scanSignup(tx.QueryRow(ctx, query, session.ID, domain.SignupTentative, excludeSignupID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select promotion candidate: %w", err)
	}

	update := `UPDATE signups SET status = $2, waitlist_rank = NULL, status_changed_at = NOW() WHERE id = $1 RETURNING status_changed_at`
	if err := tx.QueryRow(ctx, update, candidate.ID, domain.SignupCommitted).Scan(&candidate.StatusChangedAt); err != nil {
		return nil, fmt.Errorf("failed to promote signup: %w", err)
	}
	candidate.Status = domain.SignupCommitted
	candidate.WaitlistRank = nil

	promotion := &domain.Promotion{Signup: *candidate}
	if share, ok := lockedGuestShare(session, candidate.Role); ok {
		exists, err := hasLiveObligationTx(ctx, tx, session.ID, candidate.PlayerID)
		if err != nil {
			return nil, err
		}
		if !exists {
			obligation, err := insertObligationTx(ctx, tx, session.ID, *candidate, share)
			if err != nil {
				return nil, err
			}
			promotion.Obligation = obligation
		}

		if vacatedPlayerID != uuid.Nil {
			flag := `
				UPDATE obligations SET replacement_found = TRUE
				WHERE session_id = $1 AND player_id = $2 AND status IN ($3, $4)
			`
			_, err := tx.Exec(ctx, flag, session.ID, vacatedPlayerID, domain.ObligationPending, domain.ObligationSatisfied)
			if err != nil {
				return nil, fmt.Errorf("failed to flag vacated obligation: %w", err)
			}
		}
	}
	return promotion, nil
}

// ApplySignupChangeAtomic moves one player's roster standing to the requested
// status, routing committed joins to the waitlist when the roster is full and
// filling any slot the change vacated.
func (r *PostgresRepository) ApplySignupChangeAtomic(ctx context.Context, sessionID, playerID uuid.UUID, role domain.SignupRole, status domain.SignupStatus) (*domain.SignupChange, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := lockSessionRow(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionProposed && session.Status != domain.SessionConfirmed {
		return nil, &InvalidTransitionError{Current: string(session.Status), Requested: string(status)}
	}

	existing, err := findSignupTx(ctx, tx, sessionID, playerID)
	if err != nil {
		return nil, err
	}

	change := &domain.SignupChange{}
	switch status {
	case domain.SignupCommitted:
		if existing != nil && existing.Status == domain.SignupCommitted {
			change.Signup = *existing
			return change, tx.Commit(ctx)
		}
		committed, err := countCommittedTx(ctx, tx, sessionID)
		if err != nil {
			return nil, err
		}
		if committed >= session.MaxPlayers {
			rank, err := nextWaitlistRank(ctx, tx, sessionID)
			if err != nil {
				return nil, err
			}
			signup, err := upsertSignupTx(ctx, tx, existing, sessionID, playerID, role, domain.SignupTentative, &rank)
			if err != nil {
				return nil, err
			}
			change.Signup = *signup
			change.RoutedToWaitlist = true
		} else {
			signup, err := upsertSignupTx(ctx, tx, existing, sessionID, playerID, role, domain.SignupCommitted, nil)
			if err != nil {
				return nil, err
			}
			change.Signup = *signup

			// A direct commit onto a locked roster owes the frozen share,
			// same as a waitlist promotion.
			if share, ok := lockedGuestShare(session, role); ok {
				exists, err := hasLiveObligationTx(ctx, tx, sessionID, playerID)
				if err != nil {
					return nil, err
				}
				if !exists {
					obligation, err := insertObligationTx(ctx, tx, sessionID, *signup, share)
					if err != nil {
						return nil, err
					}
					change.Obligation = obligation
				}
			}
		}

	case domain.SignupTentative:
		if existing != nil && existing.Status == domain.SignupTentative {
			change.Signup = *existing
			return change, tx.Commit(ctx)
		}
		wasCommitted := existing != nil && existing.Status == domain.SignupCommitted
		rank, err := nextWaitlistRank(ctx, tx, sessionID)
		if err != nil {
			return nil, err
		}
		signup, err := upsertSignupTx(ctx, tx, existing, sessionID, playerID, role, domain.SignupTentative, &rank)
		if err != nil {
			return nil, err
		}
		change.Signup = *signup
		if wasCommitted {
			promotion, err := promoteLowestRank(ctx, tx, session, signup.ID, playerID)
			if err != nil {
				return nil, err
			}
			change.Promotion = promotion
		}

	case domain.SignupWithdrawn:
		if existing == nil {
			return nil, ErrSignupNotFound
		}
		if existing.Status == domain.SignupWithdrawn {
			change.Signup = *existing
			return change, tx.Commit(ctx)
		}
		wasCommitted := existing.Status == domain.SignupCommitted
		signup, err := upsertSignupTx(ctx, tx, existing, sessionID, playerID, role, domain.SignupWithdrawn, nil)
		if err != nil {
			return nil, err
		}
		change.Signup = *signup
		if wasCommitted {
			promotion, err := promoteLowestRank(ctx, tx, session, signup.ID, playerID)
			if err != nil {
				return nil, err
			}
			change.Promotion = promotion
		}

	default:
		return nil, fmt.Errorf("unsupported signup status %q", status)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return change, nil
}

// LockRosterAtomic freezes the roster: validates the state and the minimum,
// prices the committed guests, creates their pending obligations and flips
// the session to confirmed, all under the session row lock.
func (r *PostgresRepository) LockRosterAtomic(ctx context.Context, sessionID uuid.UUID) (*domain.Session, []domain.Obligation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := lockSessionRow(ctx, tx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.RosterLocked {
		return nil, nil, ErrAlreadyLocked
	}
	if session.Status != domain.SessionProposed {
		return nil, nil, &InvalidTransitionError{Current: string(session.Status), Requested: string(domain.SessionConfirmed)}
	}

	query := `SELECT ` + signupColumns + ` FROM signups WHERE session_id = $1 AND status = $2 ORDER BY created_at`
	rows, err := tx.Query(ctx, query, sessionID, domain.SignupCommitted)
	if err != nil {
		return nil, nil, err
	}
	var committed []domain.Signup
	for rows.Next() {
		signup, err := scanSignup(rows)
		if err != nil {
			rows.Close()
			return nil, nil, err
		}
		committed = append(committed, *signup)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if len(committed) < session.MinPlayers {
		return nil, nil, &BelowMinimumError{Committed: len(committed), Minimum: session.MinPlayers}
	}

	var guests []domain.Signup
	for _, s := range committed {
		if s.Role == domain.RoleGuest {
			guests = append(guests, s)
		}
	}

	params := pricing.CostParams{
		Courts:         session.Courts,
		OwnerRateCents: session.OwnerRateCents,
		SplitRateCents: session.SplitRateCents,
	}
	share := pricing.GuestShareCents(pricing.SplitCostCents(params), len(guests))

	obligations := make([]domain.Obligation, 0, len(guests))
	for _, guest := range guests {
		obligation, err := insertObligationTx(ctx, tx, sessionID, guest, share)
		if err != nil {
			return nil, nil, err
		}
		obligations = append(obligations, *obligation)
	}

	update := `UPDATE sessions SET status = $2, roster_locked = TRUE, guest_share_cents = $3, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, update, sessionID, domain.SessionConfirmed, share); err != nil {
		return nil, nil, fmt.Errorf("failed to confirm session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	session.Status = domain.SessionConfirmed
	session.RosterLocked = true
	session.GuestShareCents = &share
	return session, obligations, nil
}

// UnlockRosterAtomic voids the locked cycle: deletes every obligation of the
// session (whatever its status), clears the frozen share and reverts the
// session to proposed. The deleted rows are returned so the caller can surface
// already-satisfied ones for out-of-band refunds.
func (r *PostgresRepository) UnlockRosterAtomic(ctx context.Context, sessionID uuid.UUID) (*domain.Session, []domain.Obligation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := lockSessionRow(ctx, tx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !session.RosterLocked {
		return nil, nil, ErrNotLocked
	}
	if session.Status != domain.SessionConfirmed {
		return nil, nil, &InvalidTransitionError{Current: string(session.Status), Requested: string(domain.SessionProposed)}
	}

	del := `DELETE FROM obligations WHERE session_id = $1 RETURNING ` + obligationColumns
	rows, err := tx.Query(ctx, del, sessionID)
	if err != nil {
		return nil, nil, err
	}
	var deleted []domain.Obligation
	for rows.Next() {
		obligation, err := scanObligation(rows)
		if err != nil {
			rows.Close()
			return nil, nil, err
		}
		deleted = append(deleted, *obligation)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	update := `UPDATE sessions SET status = $2, roster_locked = FALSE, guest_share_cents = NULL, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, update, sessionID, domain.SessionProposed); err != nil {
		return nil, nil, fmt.Errorf("failed to revert session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	session.Status = domain.SessionProposed
	session.RosterLocked = false
	session.GuestShareCents = nil
	return session, deleted, nil
}

// FillVacanciesAtomic promotes waitlisted signups until the roster is at
// capacity or the waitlist is empty. When the owner raises max players the new
// bound arrives in newMaxPlayers and is written here, under the same row lock
// as the promotions it unlocks.
func (r *PostgresRepository) FillVacanciesAtomic(ctx context.Context, sessionID uuid.UUID, newMaxPlayers *int) ([]domain.Promotion, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := lockSessionRow(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionProposed && session.Status != domain.SessionConfirmed {
		return nil, nil
	}

	if newMaxPlayers != nil {
		update := `UPDATE sessions SET max_players = $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.Exec(ctx, update, sessionID, *newMaxPlayers); err != nil {
			return nil, fmt.Errorf("failed to raise max players: %w", err)
		}
		session.MaxPlayers = *newMaxPlayers
	}

	var promotions []domain.Promotion
	for {
		promotion, err := promoteLowestRank(ctx, tx, session, uuid.Nil, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if promotion == nil {
			break
		}
		promotions = append(promotions, *promotion)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return promotions, nil
}

// CancelSessionAtomic moves a proposed or confirmed session to cancelled.
// Obligations are deliberately left untouched: forgiving or chasing them is
// the owner's call, made through the waive and satisfy endpoints.
func (r *PostgresRepository) CancelSessionAtomic(ctx context.Context, sessionID uuid.UUID, reason string) (*domain.Session, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := lockSessionRow(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionProposed && session.Status != domain.SessionConfirmed {
		return nil, &InvalidTransitionError{Current: string(session.Status), Requested: string(domain.SessionCancelled)}
	}

	update := `UPDATE sessions SET status = $2, cancel_reason = $3, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, update, sessionID, domain.SessionCancelled, reason); err != nil {
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	session.Status = domain.SessionCancelled
	session.CancelReason = &reason
	return session, nil
}

// CancelIfBelowMinimumAtomic cancels a proposed session whose deadline has
// passed while the roster is still under the minimum. Returns (nil, nil) when
// the session no longer qualifies; the sweep races RSVPs by design and losing
// the race is not an error.
func (r *PostgresRepository) CancelIfBelowMinimumAtomic(ctx context.Context, sessionID uuid.UUID, now time.Time, reason string) (*domain.Session, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := lockSessionRow(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionProposed {
		return nil, nil
	}
	if session.PaymentDeadline == nil || session.PaymentDeadline.After(now) {
		return nil, nil
	}
	committed, err := countCommittedTx(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if committed >= session.MinPlayers {
		return nil, nil
	}

	update := `UPDATE sessions SET status = $2, cancel_reason = $3, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, update, sessionID, domain.SessionCancelled, reason); err != nil {
		return nil, fmt.Errorf("failed to cancel session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	session.Status = domain.SessionCancelled
	session.CancelReason = &reason
	return session, nil
}
