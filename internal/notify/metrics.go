package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peon_bridge_notifications_total",
		Help: "Total number of notifications emitted by the bridge",
	}, []string{"hook_event_name"})

	DeliveryFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peon_bridge_delivery_failures_total",
		Help: "Total number of notifications whose delivery failed",
	}, []string{"hook_event_name"})
)

type instrumented struct {
	next Notifier
}

// Instrumented wraps next so every payload and every failed delivery is
// counted.
func Instrumented(next Notifier) Notifier {
	return &instrumented{next: next}
}

func (i *instrumented) Notify(p Payload) error {
	label := string(p.HookEventName)
	if label == "" {
		label = "unknown"
	}
	NotificationsTotal.WithLabelValues(label).Inc()

	err := i.next.Notify(p)
	if err != nil {
		DeliveryFailuresTotal.WithLabelValues(label).Inc()
	}
	return err
}
