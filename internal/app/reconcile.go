/**
 * @description
 * This file implements the payment reconciliation matcher: the pipeline that
 * turns one inbound payment notice into at most one satisfied obligation and
 * always exactly one append-only audit record.
 *
 * Matching runs in two tiers:
 * - Tier 1, exact token: a "PB-<uuid>" reference code in the notice memo
 *   identifies the obligation directly. The token wins even when the paid
 *   amount differs from the owed amount; the discrepancy goes into the record
 *   detail for the owner to chase.
 * - Tier 2, fuzzy: pending obligations within the configured amount tolerance
 *   whose player's display name or pay handle lines up with the notice's
 *   sender label. The tier is deliberately conservative: anything other than
 *   exactly one surviving candidate is recorded unmatched with zero ledger
 *   mutations.
 *
 * @notes
 * - Notices are delivered at least once. Reprocessing a notice whose
 *   obligation is already satisfied appends another audit record and changes
 *   nothing, so the satisfy-then-record ordering here is safe to replay.
 * - Only infrastructure errors propagate to the caller (the consumer requeues
 *   on those). Every matching outcome, including parse failures and
 *   ambiguity, is a successfully processed notice.
 */

package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/metrics"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

// referenceTokenPattern extracts the obligation reference code players are
// asked to put in their payment memo.
var referenceTokenPattern = regexp.MustCompile(`PB-([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})`)

// ProcessNotice runs one payment notice through the matcher and writes its
// audit record. The returned record reports what happened; a non-nil error
// means infrastructure failed and the notice should be redelivered.
func (s *Service) ProcessNotice(ctx context.Context, notice domain.PaymentNotice) (*domain.ReconciliationRecord, error) {
	record := &domain.ReconciliationRecord{
		ID:                uuid.New(),
		NoticeExternalID:  notice.ExternalID,
		Provider:          notice.Provider,
		RawText:           notice.RawText,
		ParsedAmountCents: notice.AmountCents,
		SenderLabel:       notice.SenderLabel,
		Method:            domain.MatchUnmatched,
		SessionHint:       notice.SessionHint,
		ReceivedAt:        notice.ReceivedAt,
	}

	if notice.AmountCents <= 0 {
		record.Detail = strPtr("upstream parse produced no usable amount")
		return s.finishNotice(ctx, record)
	}

	matched, err := s.matchExactToken(ctx, notice, record)
	if err != nil {
		return nil, err
	}
	if !matched {
		if err := s.matchFuzzy(ctx, notice, record); err != nil {
			return nil, err
		}
	}

	return s.finishNotice(ctx, record)
}

// matchExactToken runs tier 1. It returns true when the token resolved to an
// obligation and the record is final; an unknown token falls through to the
// fuzzy tier.
func (s *Service) matchExactToken(ctx context.Context, notice domain.PaymentNotice, record *domain.ReconciliationRecord) (bool, error) {
	groups := referenceTokenPattern.FindStringSubmatch(notice.RawText)
	if groups == nil {
		return false, nil
	}
	code, err := uuid.Parse(groups[1])
	if err != nil {
		return false, nil
	}

	obligation, err := s.repo.FindObligationByReferenceCode(ctx, code)
	if err != nil {
		if err == store.ErrObligationNotFound {
			record.Detail = strPtr("reference token matched no obligation")
			return false, nil
		}
		return false, err
	}

	record.Method = domain.MatchExactToken
	record.MatchedObligationID = &obligation.ID

	switch obligation.Status {
	case domain.ObligationPending:
		if _, err := s.repo.MarkObligationSatisfied(ctx, obligation.ID, domain.SatisfiedViaReconciled); err != nil {
			if err == store.ErrObligationNotPending {
				record.Detail = strPtr("obligation satisfied concurrently; no changes applied")
				return true, nil
			}
			return false, err
		}
		recordSatisfaction(domain.SatisfiedViaReconciled)
		if notice.AmountCents != obligation.AmountCents {
			record.Detail = strPtr(fmt.Sprintf("amount differs: notice %d, obligation %d", notice.AmountCents, obligation.AmountCents))
		}
		s.logger.Info("obligation satisfied via reference token",
			"obligation_id", obligation.ID, "session_id", obligation.SessionID, "notice_id", notice.ExternalID)
	case domain.ObligationSatisfied:
		record.Detail = strPtr("obligation already satisfied; duplicate notice recorded")
	default:
		record.Detail = strPtr(fmt.Sprintf("obligation is %s; no changes applied", obligation.Status))
	}
	return true, nil
}

// matchFuzzy runs tier 2 over pending obligations within the amount tolerance.
func (s *Service) matchFuzzy(ctx context.Context, notice domain.PaymentNotice, record *domain.ReconciliationRecord) error {
	if strings.TrimSpace(notice.SenderLabel) == "" {
		record.Detail = strPtr("no sender label to match against")
		return nil
	}

	candidates, err := s.repo.FindFuzzyMatchCandidates(ctx, notice.AmountCents, s.matcher.AmountToleranceCents, notice.SessionHint)
	if err != nil {
		return err
	}

	var hits []domain.MatchCandidate
	for _, candidate := range candidates {
		if s.matcher.senderMatches(notice.SenderLabel, candidate) {
			hits = append(hits, candidate)
		}
	}

	switch len(hits) {
	case 0:
		if record.Detail == nil {
			record.Detail = strPtr("no pending obligation matched amount and sender")
		}
	case 1:
		obligation := hits[0].Obligation
		if _, err := s.repo.MarkObligationSatisfied(ctx, obligation.ID, domain.SatisfiedViaReconciled); err != nil {
			if err == store.ErrObligationNotPending {
				record.Detail = strPtr("fuzzy candidate satisfied concurrently; no changes applied")
				return nil
			}
			return err
		}
		recordSatisfaction(domain.SatisfiedViaReconciled)
		record.Method = domain.MatchFuzzy
		record.MatchedObligationID = &obligation.ID
		record.Detail = strPtr(fmt.Sprintf("sender %q matched player %q", notice.SenderLabel, hits[0].DisplayName))
		s.logger.Info("obligation satisfied via fuzzy match",
			"obligation_id", obligation.ID, "session_id", obligation.SessionID, "notice_id", notice.ExternalID)
	default:
		record.Detail = strPtr(fmt.Sprintf("%d candidates matched; refusing ambiguous match", len(hits)))
	}
	return nil
}

// finishNotice appends the audit record and bumps the outcome counter.
func (s *Service) finishNotice(ctx context.Context, record *domain.ReconciliationRecord) (*domain.ReconciliationRecord, error) {
	if err := s.repo.InsertReconciliationRecord(ctx, record); err != nil {
		return nil, err
	}
	metrics.NoticesProcessed.WithLabelValues(string(record.Method)).Inc()
	return record, nil
}

// ListReconciliationRecords exposes the audit trail for the internal API.
func (s *Service) ListReconciliationRecords(ctx context.Context, opts store.ReconciliationListOptions) ([]domain.ReconciliationRecord, error) {
	return s.repo.ListReconciliationRecords(ctx, opts)
}

// senderMatches reports whether a notice's sender label plausibly identifies
// the candidate's player, by display name or pay handle.
func (m MatcherSettings) senderMatches(sender string, candidate domain.MatchCandidate) bool {
	if labelsAlign(sender, candidate.DisplayName, m.SenderDistanceMax) {
		return true
	}
	return candidate.PayHandle != nil && labelsAlign(sender, *candidate.PayHandle, m.SenderDistanceMax)
}

// labelsAlign is the conservative sender comparison: case-insensitive
// containment in either direction, or edit distance within maxDistance.
func labelsAlign(sender, identity string, maxDistance int) bool {
	a := strings.ToLower(strings.TrimSpace(sender))
	b := strings.ToLower(strings.TrimSpace(identity))
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return levenshtein.ComputeDistance(a, b) <= maxDistance
}

func strPtr(s string) *string {
	return &s
}
