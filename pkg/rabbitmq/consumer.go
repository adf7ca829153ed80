/**
 * @description
 * This file provides the RabbitMQ consumer side: a durable queue bound to a
 * topic exchange with one handler per routing key.
 *
 * @notes
 * - Handlers return true to ack and false to requeue. Malformed payloads must
 *   be acked (and recorded elsewhere), otherwise they would redeliver forever;
 *   only transient infrastructure failures should return false.
 *
 * @dependencies
 * - fmt, log/slog, net/url, strings: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer holds the RabbitMQ connection and channel for consuming messages.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

func sanitizeConsumerURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	parsed, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		return "", fmt.Errorf("invalid AMQP scheme: %s", parsed.Scheme)
	}
	return clean, nil
}

// NewConsumer connects to RabbitMQ and opens a channel for consuming.
func NewConsumer(amqpURL string, logger *slog.Logger) (*Consumer, error) {
	cleanURL, err := sanitizeConsumerURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, ch: ch, logger: logger}, nil
}

// ConsumeWithBindings declares the queue, binds each routing key on the
// exchange and dispatches deliveries to the matching handler in a background
// goroutine. A true return acks the delivery; false requeues it.
func (c *Consumer) ConsumeWithBindings(exchange, queueName string, bindings map[string]func([]byte) bool) error {
	if len(bindings) == 0 {
		return fmt.Errorf("no bindings provided")
	}

	if err := c.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	q, err := c.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	handlers := make(map[string]func([]byte) bool)
	for routingKey, handler := range bindings {
		if handler == nil {
			continue
		}
		handlers[routingKey] = handler
		if err := c.ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
			return err
		}
	}

	msgs, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			handler, ok := handlers[d.RoutingKey]
			if !ok {
				c.logger.Warn("no handler for routing key, acknowledging to drop", "routing_key", d.RoutingKey)
				d.Ack(false)
				continue
			}
			if handler(d.Body) {
				d.Ack(false)
			} else {
				c.logger.Warn("handler failed, re-queuing", "routing_key", d.RoutingKey)
				d.Nack(false, true)
			}
		}
	}()

	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
