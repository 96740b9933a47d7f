// Package debounce coalesces bursts of quote triggers into a single delayed
// request so fast typing or asset switching never causes a request storm.
package debounce

import (
	"sync"
	"time"

	"github.com/portalswap/embed-swap-hub/models"
)

// DefaultWindow is the coalescing window applied when no other is configured.
const DefaultWindow = 100 * time.Millisecond

// Debouncer owns the timer and the latest pending inputs. When the window
// elapses without another Schedule call, fire receives the most recent
// inputs exactly once.
type Debouncer struct {
	window time.Duration
	fire   func(models.QuoteRequest)

	mu      sync.Mutex
	timer   *time.Timer
	pending models.QuoteRequest
	armed   bool
}

// New creates a debouncer. A non-positive window falls back to DefaultWindow.
func New(window time.Duration, fire func(models.QuoteRequest)) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window, fire: fire}
}

// Schedule records the inputs and (re)starts the window. Inputs from earlier
// calls within the same window are overwritten; only the last survive.
func (d *Debouncer) Schedule(req models.QuoteRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = req
	d.armed = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.window, d.elapsed)
		return
	}
	d.timer.Reset(d.window)
}

// CancelPending discards any scheduled request without firing.
func (d *Debouncer) CancelPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) elapsed() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	d.armed = false
	req := d.pending
	d.mu.Unlock()

	d.fire(req)
}
