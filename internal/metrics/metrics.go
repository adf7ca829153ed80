/**
 * @description
 * This package declares the service's Prometheus collectors. Everything is
 * registered on the default registry via promauto and exposed by the /metrics
 * endpoint on the API router.
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NoticesProcessed counts reconciliation outcomes by match method.
	NoticesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "reconciliation_notices_processed_total",
		Help:      "Payment notices processed, labeled by match method.",
	}, []string{"method"})

	// ObligationsSatisfied counts satisfied obligations by how they got there.
	ObligationsSatisfied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "obligations_satisfied_total",
		Help:      "Obligations marked satisfied, labeled by via (reconciled or manual).",
	}, []string{"via"})

	// WaitlistPromotions counts tentative signups promoted into committed slots.
	WaitlistPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "waitlist_promotions_total",
		Help:      "Waitlisted signups promoted into committed slots.",
	})

	// EventsPublished counts gate-approved notification events by type and channel.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "notification_events_published_total",
		Help:      "Notification events published to the broker, labeled by event type and channel.",
	}, []string{"event_type", "channel"})
)
