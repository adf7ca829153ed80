package app

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

func noticeBody(t *testing.T, notice domain.PaymentNotice) []byte {
	t.Helper()
	body, err := json.Marshal(notice)
	if err != nil {
		t.Fatalf("failed to marshal notice: %v", err)
	}
	return body
}

func TestHandleMessage_MalformedPayloadAcks(t *testing.T) {
	repo := &reconcileRepoStub{}
	consumer := NewNoticeConsumer(newReconcileService(repo), testLogger())

	if !consumer.HandleMessage([]byte("{not json")) {
		t.Fatal("expected a malformed payload to be acked and dropped")
	}
	if len(repo.records) != 0 {
		t.Fatal("did not expect a reconciliation record for a malformed payload")
	}
}

func TestHandleMessage_MissingExternalIDAcks(t *testing.T) {
	repo := &reconcileRepoStub{}
	consumer := NewNoticeConsumer(newReconcileService(repo), testLogger())

	body := noticeBody(t, domain.PaymentNotice{Provider: "venmo", AmountCents: 960})
	if !consumer.HandleMessage(body) {
		t.Fatal("expected a notice without an external id to be acked and dropped")
	}
	if len(repo.records) != 0 {
		t.Fatal("did not expect a reconciliation record without an external id")
	}
}

func TestHandleMessage_InfraErrorRequeues(t *testing.T) {
	repo := &reconcileRepoStub{insertErr: errors.New("db unavailable")}
	consumer := NewNoticeConsumer(newReconcileService(repo), testLogger())

	body := noticeBody(t, domain.PaymentNotice{
		ExternalID:  "msg-010",
		Provider:    "venmo",
		AmountCents: 960,
		SenderLabel: "Sam",
		RawText:     "no memo",
	})
	if consumer.HandleMessage(body) {
		t.Fatal("expected an infrastructure failure to requeue the notice")
	}
}

func TestHandleMessage_ProcessedNoticeAcks(t *testing.T) {
	repo := &reconcileRepoStub{}
	consumer := NewNoticeConsumer(newReconcileService(repo), testLogger())

	body := noticeBody(t, domain.PaymentNotice{
		ExternalID:  "msg-011",
		Provider:    "venmo",
		AmountCents: 960,
		SenderLabel: "Sam",
		RawText:     "no memo",
	})
	if !consumer.HandleMessage(body) {
		t.Fatal("expected a processed notice to be acked")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected one reconciliation record, got %d", len(repo.records))
	}
	if repo.records[0].Method != domain.MatchUnmatched {
		t.Fatalf("expected an unmatched record, got %q", repo.records[0].Method)
	}
}

func TestHandleMessage_DefaultsReceivedAt(t *testing.T) {
	repo := &reconcileRepoStub{}
	consumer := NewNoticeConsumer(newReconcileService(repo), testLogger())

	body := noticeBody(t, domain.PaymentNotice{
		ExternalID:  "msg-012",
		Provider:    "venmo",
		AmountCents: 960,
		SenderLabel: "Sam",
		RawText:     "no memo",
	})
	if !consumer.HandleMessage(body) {
		t.Fatal("expected the notice to be acked")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected one reconciliation record, got %d", len(repo.records))
	}
	if repo.records[0].ReceivedAt.IsZero() {
		t.Fatal("expected a defaulted received_at timestamp")
	}
}
