/**
 * @description
 * Scheduled job implementations: the sweeps that complete elapsed sessions,
 * cancel under-subscribed sessions at their payment deadline, and send
 * payment reminders for sessions coming up.
 */

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

const (
	belowMinimumCancelReason = "below minimum players at payment deadline"
	reminderKindUpcoming     = "upcoming_session"

	// sweepTimeout bounds one run of any scheduled sweep so a stuck query
	// cannot pile runs up behind it.
	sweepTimeout = 2 * time.Minute
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	service      *Service
	logger       *slog.Logger
	reminderLead time.Duration
}

// NewJobs creates a new Jobs runner.
func NewJobs(service *Service, logger *slog.Logger, reminderLead time.Duration) *Jobs {
	return &Jobs{
		service:      service,
		logger:       logger,
		reminderLead: reminderLead,
	}
}

// CompleteElapsedSessions moves confirmed sessions whose scheduled window has
// passed into the completed state.
func (j *Jobs) CompleteElapsedSessions() {
	j.logger.Info("starting session completion sweep")
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	completed, err := j.service.repo.CompleteElapsedSessions(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("failed to complete elapsed sessions", "error", err)
		return
	}
	if len(completed) == 0 {
		j.logger.Info("no elapsed sessions to complete")
		return
	}

	for _, session := range completed {
		j.logger.Info("session completed", "session_id", session.ID, "scheduled_at", session.ScheduledAt)
	}
	j.logger.Info("session completion sweep finished", "count", len(completed))
}

// CancelBelowMinimumSessions cancels proposed sessions that passed their
// payment deadline without reaching the minimum committed headcount. The
// candidate listing is optimistic; the per-session cancel re-checks everything
// under the row lock and returning no session means the sweep lost a race it
// should lose.
func (j *Jobs) CancelBelowMinimumSessions() {
	j.logger.Info("starting deadline cancellation sweep")
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	now := time.Now().UTC()

	candidates, err := j.service.repo.ListDeadlineCancelCandidates(ctx, now)
	if err != nil {
		j.logger.Error("failed to list deadline cancel candidates", "error", err)
		return
	}
	if len(candidates) == 0 {
		j.logger.Info("no sessions below minimum at deadline")
		return
	}

	cancelled := 0
	for _, candidate := range candidates {
		session, err := j.service.repo.CancelIfBelowMinimumAtomic(ctx, candidate.ID, now, belowMinimumCancelReason)
		if err != nil {
			j.logger.Error("failed to cancel below-minimum session", "session_id", candidate.ID, "error", err)
			continue
		}
		if session == nil {
			continue
		}
		cancelled++
		j.logger.Info("session cancelled below minimum", "session_id", session.ID, "min_players", session.MinPlayers)
		j.service.notifyRoster(ctx, domain.EventSessionCancelled, session.ID, scopeEveryone)
	}
	j.logger.Info("deadline cancellation sweep finished", "candidates", len(candidates), "cancelled", cancelled)
}

// SendPaymentReminders emits one reminder per pending obligation on sessions
// starting within the configured lead window. The claim row makes the
// reminder once-per-obligation across instances and restarts.
func (j *Jobs) SendPaymentReminders() {
	j.logger.Info("starting payment reminder sweep")
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	now := time.Now().UTC()

	targets, err := j.service.repo.ListReminderTargets(ctx, now, j.reminderLead, reminderKindUpcoming)
	if err != nil {
		j.logger.Error("failed to list reminder targets", "error", err)
		return
	}
	if len(targets) == 0 {
		j.logger.Info("no payment reminders due")
		return
	}

	sent := 0
	for _, target := range targets {
		claimed, err := j.service.repo.RecordPaymentReminder(ctx, target.ObligationID, reminderKindUpcoming)
		if err != nil {
			j.logger.Error("failed to claim payment reminder", "obligation_id", target.ObligationID, "error", err)
			continue
		}
		if !claimed {
			continue
		}
		sent++
		j.service.notifier.NotifyIDs(ctx, domain.EventPaymentReminder, target.SessionID, []uuid.UUID{target.PlayerID})
	}
	j.logger.Info("payment reminder sweep finished", "targets", len(targets), "sent", sent)
}
