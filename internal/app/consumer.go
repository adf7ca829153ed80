/**
 * @description
 * This file implements the AMQP consumer handler for inbound payment notices.
 * The upstream email-parser service publishes one message per observed
 * payment; this handler decodes it and runs it through the reconciliation
 * matcher.
 *
 * @notes
 * - Returning true acknowledges the message, returning false requeues it.
 *   Malformed payloads are acknowledged and dropped: redelivery cannot fix a
 *   body that does not decode. Matcher infrastructure errors requeue, because
 *   a retry against a healthy database will land the notice.
 */

package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
)

const noticeProcessingTimeout = 15 * time.Second

// NoticeConsumer handles payment notice messages from the broker.
type NoticeConsumer struct {
	service *Service
	logger  *slog.Logger
}

// NewNoticeConsumer creates a consumer handler backed by the given service.
func NewNoticeConsumer(service *Service, logger *slog.Logger) *NoticeConsumer {
	return &NoticeConsumer{service: service, logger: logger}
}

// HandleMessage decodes one notice message and reconciles it. The boolean is
// the ack decision for the AMQP delivery.
func (c *NoticeConsumer) HandleMessage(body []byte) bool {
	var notice domain.PaymentNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		c.logger.Error("notice-consumer: failed to unmarshal payload", "error", err)
		return true
	}

	if strings.TrimSpace(notice.ExternalID) == "" {
		c.logger.Error("notice-consumer: missing external id, dropping notice", "provider", notice.Provider)
		return true
	}
	if notice.ReceivedAt.IsZero() {
		notice.ReceivedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), noticeProcessingTimeout)
	defer cancel()

	record, err := c.service.ProcessNotice(ctx, notice)
	if err != nil {
		c.logger.Error("notice-consumer: processing error, requeueing",
			"notice_id", notice.ExternalID, "error", err)
		return false
	}

	c.logger.Info("notice-consumer: notice processed",
		"notice_id", notice.ExternalID, "method", record.Method)
	return true
}
