package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pingchat_messages_sent_total",
		Help: "Messages persisted through the send path.",
	})

	CallLogsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pingchat_call_logs_recorded_total",
		Help: "Call-log entries persisted.",
	})

	EventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pingchat_ws_events_delivered_total",
		Help: "Real-time events pushed to a reachable connection.",
	}, []string{"event"})

	EventsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pingchat_ws_events_skipped_total",
		Help: "Real-time events not pushed because the recipient was unreachable or its buffer was full.",
	}, []string{"event"})

	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pingchat_online_users",
		Help: "Users with a live WebSocket connection on this instance.",
	})
)
