/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface for players, notification preferences, sessions, obligations,
 * reconciliation records and reminder bookkeeping. The multi-step roster
 * invariants (lock, unlock, RSVP, promotion) live in postgres_roster.go.
 *
 * @notes
 * - Obligation status changes are single status-gated UPDATEs: the WHERE
 *   clause carries the required current status and zero affected rows is
 *   resolved to "not found" or "wrong state" with a follow-up existence check.
 *   That keeps the transitions safe under concurrent matchers without
 *   explicit locks.
 *
 * @dependencies
 * - context, errors, fmt, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

var (
	ErrPlayerNotFound         = errors.New("player not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrSignupNotFound         = errors.New("signup not found")
	ErrObligationNotFound     = errors.New("obligation not found")
	ErrAlreadyLocked          = errors.New("roster is already locked")
	ErrNotLocked              = errors.New("roster is not locked")
	ErrObligationNotPending   = errors.New("obligation is not pending")
	ErrObligationNotSatisfied = errors.New("obligation is not satisfied")
)

// InvalidTransitionError reports an illegal state change, carrying the state
// the entity is in and the state the caller asked for.
type InvalidTransitionError struct {
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: current state %q does not allow %q", e.Current, e.Requested)
}

// BelowMinimumError reports a lock attempt on a roster that has not reached
// the session's minimum player count.
type BelowMinimumError struct {
	Committed int
	Minimum   int
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("roster below minimum: %d committed, %d required", e.Committed, e.Minimum)
}

const (
	defaultReconciliationListLimit = 50
	maxReconciliationListLimit     = 200
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, group_id, owner_id, title, scheduled_at, duration_minutes, courts,
	owner_rate_cents, split_rate_cents, min_players, max_players, status, roster_locked,
	guest_share_cents, payment_deadline, cancel_reason, waitlist_seq, created_at, updated_at`

const obligationColumns = `id, session_id, signup_id, player_id, amount_cents, status, reference_code,
	satisfied_via, note, replacement_found, created_at, satisfied_at, waived_at, reversed_at`

const signupColumns = `id, session_id, player_id, role, status, waitlist_rank, status_changed_at, created_at`

// scanSession maps one sessions row; works for both pool and transaction rows.
func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID, &s.GroupID, &s.OwnerID, &s.Title, &s.ScheduledAt, &s.DurationMinutes, &s.Courts,
		&s.OwnerRateCents, &s.SplitRateCents, &s.MinPlayers, &s.MaxPlayers, &s.Status, &s.RosterLocked,
		&s.GuestShareCents, &s.PaymentDeadline, &s.CancelReason, &s.WaitlistSeq, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanObligation(row pgx.Row) (*domain.Obligation, error) {
	var o domain.Obligation
	err := row.Scan(
		&o.ID, &o.SessionID, &o.SignupID, &o.PlayerID, &o.AmountCents, &o.Status, &o.ReferenceCode,
		&o.SatisfiedVia, &o.Note, &o.ReplacementFound, &o.CreatedAt, &o.SatisfiedAt, &o.WaivedAt, &o.ReversedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanSignup(row pgx.Row) (*domain.Signup, error) {
	var s domain.Signup
	err := row.Scan(&s.ID, &s.SessionID, &s.PlayerID, &s.Role, &s.Status, &s.WaitlistRank, &s.StatusChangedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindPlayerByID retrieves a player from the externally managed players table.
func (r *PostgresRepository) FindPlayerByID(ctx context.Context, playerID uuid.UUID) (*domain.Player, error) {
	var p domain.Player
	query := `SELECT id, display_name, pay_handle, email, phone, created_at FROM players WHERE id = $1`
	err := r.db.QueryRow(ctx, query, playerID).Scan(&p.ID, &p.DisplayName, &p.PayHandle, &p.Email, &p.Phone, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

// IsActiveGroupMember reports whether the player is an active member of the group.
func (r *PostgresRepository) IsActiveGroupMember(ctx context.Context, groupID, playerID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND player_id = $2 AND status = 'active')`
	if err := r.db.QueryRow(ctx, query, groupID, playerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListActiveGroupMembers returns the players who are active members of the group.
func (r *PostgresRepository) ListActiveGroupMembers(ctx context.Context, groupID uuid.UUID) ([]domain.Player, error) {
	query := `
		SELECT p.id, p.display_name, p.pay_handle, p.email, p.phone, p.created_at
		FROM players p
		JOIN group_members gm ON gm.player_id = p.id
		WHERE gm.group_id = $1 AND gm.status = 'active'
		ORDER BY p.display_name
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.PayHandle, &p.Email, &p.Phone, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetNotificationPreference returns the stored preference row, or nil when the
// player has never set one for this (event type, channel) pair.
func (r *PostgresRepository) GetNotificationPreference(ctx context.Context, playerID uuid.UUID, eventType domain.EventType, channel domain.NotificationChannel) (*domain.NotificationPreference, error) {
	var pref domain.NotificationPreference
	query := `
		SELECT player_id, event_type, channel, enabled, updated_at
		FROM notification_preferences
		WHERE player_id = $1 AND event_type = $2 AND channel = $3
	`
	err := r.db.QueryRow(ctx, query, playerID, eventType, channel).Scan(
		&pref.PlayerID, &pref.EventType, &pref.Channel, &pref.Enabled, &pref.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

// UpsertNotificationPreference stores or overwrites one preference row.
func (r *PostgresRepository) UpsertNotificationPreference(ctx context.Context, pref domain.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (player_id, event_type, channel, enabled, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (player_id, event_type, channel)
		DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, pref.PlayerID, pref.EventType, pref.Channel, pref.Enabled)
	if err != nil {
		return fmt.Errorf("failed to upsert notification preference: %w", err)
	}
	return nil
}

// CreateSessionWithHost inserts the session and the owner's committed host
// signup in one transaction so a session can never exist without its host.
func (r *PostgresRepository) CreateSessionWithHost(ctx context.Context, session *domain.Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertSession := `
		INSERT INTO sessions (
			id, group_id, owner_id, title, scheduled_at, duration_minutes, courts,
			owner_rate_cents, split_rate_cents, min_players, max_players, status,
			roster_locked, payment_deadline, waitlist_seq
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, $13, 0)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, insertSession,
		session.ID, session.GroupID, session.OwnerID, session.Title, session.ScheduledAt,
		session.DurationMinutes, session.Courts, session.OwnerRateCents, session.SplitRateCents,
		session.MinPlayers, session.MaxPlayers, session.Status, session.PaymentDeadline,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	insertHost := `
		INSERT INTO signups (id, session_id, player_id, role, status, status_changed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err = tx.Exec(ctx, insertHost, uuid.New(), session.ID, session.OwnerID, domain.RoleHost, domain.SignupCommitted)
	if err != nil {
		return fmt.Errorf("failed to insert host signup: %w", err)
	}

	return tx.Commit(ctx)
}

// FindSessionByID retrieves a session by its id.
func (r *PostgresRepository) FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	session, err := scanSession(r.db.QueryRow(ctx, query, sessionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// ListSessionsByGroup returns the group's sessions, newest scheduled first.
func (r *PostgresRepository) ListSessionsByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]domain.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE group_id = $1 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// UpdateSession persists owner-editable fields. Status and lock state are
// owned by the atomic roster operations and are deliberately not touched here.
func (r *PostgresRepository) UpdateSession(ctx context.Context, session *domain.Session) error {
	query := `
		UPDATE sessions
		SET title = $2, scheduled_at = $3, duration_minutes = $4, courts = $5,
		    owner_rate_cents = $6, split_rate_cents = $7, min_players = $8,
		    max_players = $9, payment_deadline = $10, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		session.ID, session.Title, session.ScheduledAt, session.DurationMinutes, session.Courts,
		session.OwnerRateCents, session.SplitRateCents, session.MinPlayers, session.MaxPlayers,
		session.PaymentDeadline,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session outright. Signups and obligations go with it
// through the schema's ON DELETE CASCADE; reconciliation records keep their
// weak obligation references and survive as audit history.
func (r *PostgresRepository) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CompleteElapsedSessions flips every confirmed session whose scheduled window
// has passed to completed and returns the affected rows.
func (r *PostgresRepository) CompleteElapsedSessions(ctx context.Context, now time.Time) ([]domain.Session, error) {
	query := `
		UPDATE sessions
		SET status = $1, updated_at = NOW()
		WHERE status = $2
		  AND scheduled_at + make_interval(mins => duration_minutes) <= $3
		RETURNING ` + sessionColumns
	rows, err := r.db.Query(ctx, query, domain.SessionCompleted, domain.SessionConfirmed, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// ListDeadlineCancelCandidates returns proposed sessions whose payment
// deadline has passed. The minimum-roster check happens under lock in
// CancelIfBelowMinimumAtomic; this is only the sweep's candidate scan.
func (r *PostgresRepository) ListDeadlineCancelCandidates(ctx context.Context, now time.Time) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = $1 AND payment_deadline IS NOT NULL AND payment_deadline <= $2`
	rows, err := r.db.Query(ctx, query, domain.SessionProposed, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// FindSignup retrieves one player's signup on one session.
func (r *PostgresRepository) FindSignup(ctx context.Context, sessionID, playerID uuid.UUID) (*domain.Signup, error) {
	query := `SELECT ` + signupColumns + ` FROM signups WHERE session_id = $1 AND player_id = $2`
	signup, err := scanSignup(r.db.QueryRow(ctx, query, sessionID, playerID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSignupNotFound
		}
		return nil, err
	}
	return signup, nil
}

// ListSignupsBySession returns the full roster: committed first, then the
// waitlist in rank order, then withdrawn.
func (r *PostgresRepository) ListSignupsBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Signup, error) {
	query := `SELECT ` + signupColumns + `
		FROM signups
		WHERE session_id = $1
		ORDER BY CASE status WHEN 'committed' THEN 0 WHEN 'tentative' THEN 1 ELSE 2 END,
		         waitlist_rank NULLS FIRST, created_at`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signups []domain.Signup
	for rows.Next() {
		signup, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		signups = append(signups, *signup)
	}
	return signups, rows.Err()
}

// FindObligationByID retrieves an obligation by its id.
func (r *PostgresRepository) FindObligationByID(ctx context.Context, obligationID uuid.UUID) (*domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE id = $1`
	obligation, err := scanObligation(r.db.QueryRow(ctx, query, obligationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrObligationNotFound
		}
		return nil, err
	}
	return obligation, nil
}

// FindObligationByReferenceCode resolves a correlation token's uuid to its obligation.
func (r *PostgresRepository) FindObligationByReferenceCode(ctx context.Context, code uuid.UUID) (*domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE reference_code = $1`
	obligation, err := scanObligation(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrObligationNotFound
		}
		return nil, err
	}
	return obligation, nil
}

// ListObligationsBySession returns a session's obligations, oldest first.
func (r *PostgresRepository) ListObligationsBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE session_id = $1 ORDER BY created_at`
	return r.queryObligations(ctx, query, sessionID)
}

// ListObligationsByPlayer returns a player's obligations across sessions, newest first.
func (r *PostgresRepository) ListObligationsByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE player_id = $1 ORDER BY created_at DESC`
	return r.queryObligations(ctx, query, playerID)
}

func (r *PostgresRepository) queryObligations(ctx context.Context, query string, args ...any) ([]domain.Obligation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obligations []domain.Obligation
	for rows.Next() {
		obligation, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, *obligation)
	}
	return obligations, rows.Err()
}

// SumObligationCentsByStatus rolls up a session's obligation amounts per status.
func (r *PostgresRepository) SumObligationCentsByStatus(ctx context.Context, sessionID uuid.UUID) (map[domain.ObligationStatus]int64, error) {
	query := `SELECT status, COALESCE(SUM(amount_cents), 0) FROM obligations WHERE session_id = $1 GROUP BY status`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[domain.ObligationStatus]int64)
	for rows.Next() {
		var status domain.ObligationStatus
		var cents int64
		if err := rows.Scan(&status, &cents); err != nil {
			return nil, err
		}
		sums[status] = cents
	}
	return sums, rows.Err()
}

// MarkObligationSatisfied transitions pending -> satisfied. The status guard
// in the WHERE clause makes repeated calls safe under concurrent matchers.
func (r *PostgresRepository) MarkObligationSatisfied(ctx context.Context, obligationID uuid.UUID, via domain.SatisfiedVia) (*domain.Obligation, error) {
	query := `
		UPDATE obligations
		SET status = $2, satisfied_via = $3, satisfied_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + obligationColumns
	obligation, err := scanObligation(r.db.QueryRow(ctx, query, obligationID, domain.ObligationSatisfied, via, domain.ObligationPending))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyObligationGateMiss(ctx, obligationID, ErrObligationNotPending)
		}
		return nil, err
	}
	return obligation, nil
}

// WaiveObligation transitions pending -> waived with the owner's note.
func (r *PostgresRepository) WaiveObligation(ctx context.Context, obligationID uuid.UUID, note string) (*domain.Obligation, error) {
	query := `
		UPDATE obligations
		SET status = $2, note = $3, waived_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + obligationColumns
	obligation, err := scanObligation(r.db.QueryRow(ctx, query, obligationID, domain.ObligationWaived, note, domain.ObligationPending))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyObligationGateMiss(ctx, obligationID, ErrObligationNotPending)
		}
		return nil, err
	}
	return obligation, nil
}

// ReverseObligation transitions satisfied -> reversed with the owner's reason.
func (r *PostgresRepository) ReverseObligation(ctx context.Context, obligationID uuid.UUID, reason string) (*domain.Obligation, error) {
	query := `
		UPDATE obligations
		SET status = $2, note = $3, reversed_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + obligationColumns
	obligation, err := scanObligation(r.db.QueryRow(ctx, query, obligationID, domain.ObligationReversed, reason, domain.ObligationSatisfied))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyObligationGateMiss(ctx, obligationID, ErrObligationNotSatisfied)
		}
		return nil, err
	}
	return obligation, nil
}

// classifyObligationGateMiss distinguishes "row does not exist" from "row is
// in the wrong state" after a status-gated UPDATE touched zero rows.
func (r *PostgresRepository) classifyObligationGateMiss(ctx context.Context, obligationID uuid.UUID, stateErr error) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM obligations WHERE id = $1)`, obligationID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrObligationNotFound
	}
	return stateErr
}

// FindFuzzyMatchCandidates returns pending obligations within the amount
// window, joined with the payer identity the matcher compares sender labels
// against. Label similarity is computed in the application, not in SQL.
func (r *PostgresRepository) FindFuzzyMatchCandidates(ctx context.Context, amountCents, toleranceCents int64, sessionHint *uuid.UUID) ([]domain.MatchCandidate, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT o.id, o.session_id, o.signup_id, o.player_id, o.amount_cents, o.status, o.reference_code,
		       o.satisfied_via, o.note, o.replacement_found, o.created_at, o.satisfied_at, o.waived_at, o.reversed_at,
		       p.display_name, p.pay_handle
		FROM obligations o
		JOIN players p ON p.id = o.player_id
		WHERE o.status = $1 AND o.amount_cents BETWEEN $2 AND $3
	`)
	args := []any{domain.ObligationPending, amountCents - toleranceCents, amountCents + toleranceCents}
	if sessionHint != nil {
		args = append(args, *sessionHint)
		sb.WriteString(fmt.Sprintf(" AND o.session_id = $%d", len(args)))
	}
	sb.WriteString(" ORDER BY o.created_at")

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.MatchCandidate
	for rows.Next() {
		var c domain.MatchCandidate
		o := &c.Obligation
		err := rows.Scan(
			&o.ID, &o.SessionID, &o.SignupID, &o.PlayerID, &o.AmountCents, &o.Status, &o.ReferenceCode,
			&o.SatisfiedVia, &o.Note, &o.ReplacementFound, &o.CreatedAt, &o.SatisfiedAt, &o.WaivedAt, &o.ReversedAt,
			&c.DisplayName, &c.PayHandle,
		)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// InsertReconciliationRecord appends one audit row. Records are immutable;
// there is no update or delete path.
func (r *PostgresRepository) InsertReconciliationRecord(ctx context.Context, record *domain.ReconciliationRecord) error {
	query := `
		INSERT INTO reconciliation_records (
			id, notice_external_id, provider, raw_text, parsed_amount_cents, sender_label,
			matched_obligation_id, method, detail, session_hint, received_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		record.ID, record.NoticeExternalID, record.Provider, record.RawText, record.ParsedAmountCents,
		record.SenderLabel, record.MatchedObligationID, record.Method, record.Detail, record.SessionHint,
		record.ReceivedAt,
	).Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reconciliation record: %w", err)
	}
	return nil
}

// ListReconciliationRecords returns audit rows, newest first, optionally
// narrowed to a session hint and match method.
func (r *PostgresRepository) ListReconciliationRecords(ctx context.Context, opts ReconciliationListOptions) ([]domain.ReconciliationRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultReconciliationListLimit
	}
	if limit > maxReconciliationListLimit {
		limit = maxReconciliationListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, notice_external_id, provider, raw_text, parsed_amount_cents, sender_label,
		       matched_obligation_id, method, detail, session_hint, received_at, created_at
		FROM reconciliation_records
		WHERE 1=1
	`)
	var args []any
	if opts.SessionHint != nil {
		args = append(args, *opts.SessionHint)
		sb.WriteString(fmt.Sprintf(" AND session_hint = $%d", len(args)))
	}
	if opts.Method != nil {
		args = append(args, *opts.Method)
		sb.WriteString(fmt.Sprintf(" AND method = $%d", len(args)))
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)))
	args = append(args, offset)
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ReconciliationRecord
	for rows.Next() {
		var rec domain.ReconciliationRecord
		err := rows.Scan(
			&rec.ID, &rec.NoticeExternalID, &rec.Provider, &rec.RawText, &rec.ParsedAmountCents,
			&rec.SenderLabel, &rec.MatchedObligationID, &rec.Method, &rec.Detail, &rec.SessionHint,
			&rec.ReceivedAt, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListReminderTargets returns pending obligations on locked sessions whose
// scheduled time falls inside the reminder window and that have not already
// received a reminder of this kind.
func (r *PostgresRepository) ListReminderTargets(ctx context.Context, now time.Time, lead time.Duration, kind string) ([]domain.ReminderTarget, error) {
	query := `
		SELECT o.id, o.session_id, o.player_id, s.scheduled_at
		FROM obligations o
		JOIN sessions s ON s.id = o.session_id
		WHERE o.status = $1
		  AND s.roster_locked = TRUE
		  AND s.status = $2
		  AND s.scheduled_at > $3
		  AND s.scheduled_at <= $4
		  AND NOT EXISTS (
		      SELECT 1 FROM payment_reminders pr
		      WHERE pr.obligation_id = o.id AND pr.kind = $5
		  )
		ORDER BY s.scheduled_at
	`
	rows, err := r.db.Query(ctx, query, domain.ObligationPending, domain.SessionConfirmed, now, now.Add(lead), kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []domain.ReminderTarget
	for rows.Next() {
		var t domain.ReminderTarget
		if err := rows.Scan(&t.ObligationID, &t.SessionID, &t.PlayerID, &t.ScheduledAt); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// RecordPaymentReminder claims the (obligation, kind) reminder slot. Returns
// true when this call inserted the row, false when a previous sweep already
// had; the conflict target makes concurrent sweeps safe.
func (r *PostgresRepository) RecordPaymentReminder(ctx context.Context, obligationID uuid.UUID, kind string) (bool, error) {
	query := `
		INSERT INTO payment_reminders (obligation_id, kind, sent_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (obligation_id, kind) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, obligationID, kind)
	if err != nil {
		return false, fmt.Errorf("failed to record payment reminder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
