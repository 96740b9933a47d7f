package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var quotesServed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swapwidget_quotes_served_total",
	Help: "Quotes computed and pushed to the widget.",
})
