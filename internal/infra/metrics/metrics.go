// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	inboundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_inbound_messages_total",
			Help: "Inbound transport messages by classification (command/mention/ignored).",
		},
		[]string{"kind"},
	)

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_commands_total",
			Help: "Dispatched commands by name and outcome.",
		},
		[]string{"command", "outcome"},
	)

	announcementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_announcements_total",
			Help: "Post announcements by result (sent/skipped/skipped_category/skipped_reply/failed).",
		},
		[]string{"result"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_notifications_total",
			Help: "Per-recipient notification deliveries by result (sent/skipped/suppressed/failed).",
		},
		[]string{"result"},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Transport send attempts by success.",
		},
		[]string{"success"},
	)

	reconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_reconnects_total",
			Help: "Times the bot connection entered the reconnecting state.",
		},
	)

	langCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_language_cache_requests_total",
			Help: "Language cache lookups by result (hit/miss).",
		},
		[]string{"result"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			inboundTotal, commandsTotal, announcementsTotal,
			notificationsTotal, deliveriesTotal, reconnectsTotal,
			langCacheRequests,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncInbound(kind string) { inboundTotal.WithLabelValues(norm(kind)).Inc() }

func IncCommand(name, outcome string) {
	commandsTotal.WithLabelValues(norm(name), norm(outcome)).Inc()
}

func IncAnnouncement(result string) { announcementsTotal.WithLabelValues(norm(result)).Inc() }

func IncNotification(result string) { notificationsTotal.WithLabelValues(norm(result)).Inc() }

func IncReconnect() { reconnectsTotal.Inc() }

func IncLanguageCache(result string) { langCacheRequests.WithLabelValues(norm(result)).Inc() }

func IncDelivery(success bool) {
	if success {
		deliveriesTotal.WithLabelValues("true").Inc()
	} else {
		deliveriesTotal.WithLabelValues("false").Inc()
	}
}
