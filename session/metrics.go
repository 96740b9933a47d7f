package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	droppedEnvelopes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapwidget_envelopes_dropped_total",
		Help: "Envelopes dropped at session ingress, by reason.",
	}, []string{"reason"})

	terminalSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapwidget_sessions_terminal_total",
		Help: "Sessions that reached a terminal outcome, by outcome.",
	}, []string{"outcome"})
)
