package surface

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var widgetsServed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swapwidget_surface_bootstraps_total",
	Help: "Widget bootstrap requests served with a valid surface token.",
})
