// Package widget is the surface-side controller: it mirrors the swap state
// for rendering, forwards user intents to the host as messages, and applies
// inbound state updates. It owns the quote debouncer, so bursts of typing
// collapse into one request and stale answers never reach the view.
package widget

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/portalswap/embed-swap-hub/channel"
	"github.com/portalswap/embed-swap-hub/debounce"
	"github.com/portalswap/embed-swap-hub/models"
	"github.com/portalswap/embed-swap-hub/protocol"
	"github.com/portalswap/embed-swap-hub/session"
)

var Logger zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	Logger = zerolog.New(out).With().Timestamp().Logger()
}

// SetLogger allows setting a custom logger
func SetLogger(l zerolog.Logger) {
	Logger = l
}

// Controller runs the widget side of the protocol.
type Controller struct {
	sess *session.Session
	deb  *debounce.Debouncer

	mu           sync.Mutex
	haveAssets   bool
	sourceAssets []models.Asset
	source       models.Asset
	target       models.Asset
	amount       decimal.Decimal
	address      common.Address
	connected    bool
	quote        *models.Quote
	working      bool
	succeeded    bool
	errorMessage string
}

// ViewState is a render-ready snapshot of the controller.
type ViewState struct {
	HaveAssets    bool
	SourceAssets  []models.Asset
	Source        models.Asset
	Target        models.Asset
	Amount        decimal.Decimal
	TargetDisplay string
	Connected     bool
	Address       common.Address
	Quote         *models.Quote
	Working       bool
	Succeeded     bool
	ErrorMessage  string
	ButtonLabel   string
}

// New adopts the session carried by the surface token and wires the
// debouncer. The controller is inert until Start.
func New(tok protocol.SurfaceToken, ep *channel.Endpoint, window time.Duration) *Controller {
	c := &Controller{
		sess: session.Adopt(tok, ep),
	}
	c.deb = debounce.New(window, c.requestQuote)
	c.sess.Bind(c.handleEnvelope)
	return c
}

// Start announces the widget to the host with its config echo.
func (c *Controller) Start() error {
	return c.sess.Send(protocol.MsgWidgetReady, c.sess.Token())
}

// SID returns the adopted session id.
func (c *Controller) SID() string {
	return c.sess.SID()
}

// SetAmount is the amount-input intent. A non-positive amount resets the
// target display to zero without a round trip; anything else schedules a
// debounced quote request.
func (c *Controller) SetAmount(amount decimal.Decimal) {
	c.mu.Lock()
	c.amount = amount
	if !amount.IsPositive() || !c.haveAssets {
		c.quote = nil
		c.mu.Unlock()
		c.deb.CancelPending()
		return
	}
	req := c.currentRequestLocked()
	c.mu.Unlock()
	c.deb.Schedule(req)
}

// SelectAsset is the source-asset switch intent.
func (c *Controller) SelectAsset(index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.sourceAssets) {
		c.mu.Unlock()
		return
	}
	c.source = c.sourceAssets[index]
	c.quote = nil
	if !c.amount.IsPositive() {
		c.mu.Unlock()
		return
	}
	req := c.currentRequestLocked()
	c.mu.Unlock()
	c.deb.Schedule(req)
}

// Submit advances the flow one step: connect the wallet if none is bound,
// otherwise approve if the latest quote demands it, otherwise swap.
func (c *Controller) Submit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A step is already in flight; the button is disabled until its result
	// comes back.
	if c.working {
		return nil
	}

	switch {
	case !c.connected:
		c.working = true
		return c.sess.Send(protocol.MsgConnectWallet, nil)
	case c.quote == nil:
		return nil
	case c.quote.ApprovalRequired:
		c.working = true
		return c.sess.Send(protocol.MsgApprove, protocol.ApprovePayload{
			SourceAsset: c.source,
			Amount:      c.amount,
		})
	case c.quote.SufficientBalance:
		c.working = true
		return c.sess.Send(protocol.MsgSwap, protocol.SwapPayload{
			SourceAsset: c.source,
			TargetAsset: c.target,
			Amount:      c.amount,
			Address:     c.address,
		})
	default:
		return nil
	}
}

// Close is the user dismissing the widget.
func (c *Controller) Close() {
	c.deb.CancelPending()
	if err := c.sess.Send(protocol.MsgCancel, nil); err != nil {
		Logger.Debug().Err(err).Msg("failed to send cancel")
	}
	c.sess.Teardown()
}

// Snapshot returns a copy of the view state.
func (c *Controller) Snapshot() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	vs := ViewState{
		HaveAssets:   c.haveAssets,
		SourceAssets: append([]models.Asset(nil), c.sourceAssets...),
		Source:       c.source,
		Target:       c.target,
		Amount:       c.amount,
		Connected:    c.connected,
		Address:      c.address,
		Working:      c.working,
		Succeeded:    c.succeeded,
		ErrorMessage: c.errorMessage,
	}
	vs.TargetDisplay = "0"
	if c.quote != nil {
		q := *c.quote
		vs.Quote = &q
		vs.TargetDisplay = q.ToAmount.String()
	}
	vs.ButtonLabel = c.buttonLabelLocked()
	return vs
}

func (c *Controller) buttonLabelLocked() string {
	switch {
	case !c.connected:
		return "Connect Wallet"
	case c.quote != nil && !c.quote.SufficientBalance:
		return "Insufficient Balance"
	case c.quote != nil && c.quote.ApprovalRequired:
		return fmt.Sprintf("Approve %s", c.source.Symbol)
	default:
		return "Swap"
	}
}

func (c *Controller) currentRequestLocked() models.QuoteRequest {
	return models.SwapIntent{
		SourceAsset:  c.source,
		TargetAsset:  c.target,
		SourceAmount: c.amount,
	}.Request()
}

// requestQuote fires when the debounce window elapses, and directly after
// connect/approve when the quote must refresh immediately.
func (c *Controller) requestQuote(req models.QuoteRequest) {
	if err := c.sess.Send(protocol.MsgGetQuote, req); err != nil {
		Logger.Debug().Err(err).Msg("failed to send quote request")
	}
}

func (c *Controller) handleEnvelope(env protocol.Envelope) {
	switch env.Type {
	case protocol.MsgSetFromAssets:
		var p protocol.FromAssetsPayload
		if err := env.Unmarshal(&p); err != nil {
			Logger.Debug().Err(err).Msg("ignoring malformed asset list")
			return
		}
		c.mu.Lock()
		c.sourceAssets = p.SourceAssets
		c.target = p.TargetAsset
		if len(p.SourceAssets) > 0 {
			c.source = p.SourceAssets[0]
		}
		c.haveAssets = true
		c.mu.Unlock()

	case protocol.MsgSetQuote:
		var q models.Quote
		if err := env.Unmarshal(&q); err != nil {
			Logger.Debug().Err(err).Msg("ignoring malformed quote")
			return
		}
		c.applyQuote(q)

	case protocol.MsgConnected:
		var p protocol.ConnectedPayload
		if err := env.Unmarshal(&p); err != nil {
			return
		}
		c.mu.Lock()
		c.address = p.Address
		c.connected = true
		c.working = false
		refresh := c.amount.IsPositive() && c.haveAssets
		var req models.QuoteRequest
		if refresh {
			req = c.currentRequestLocked()
		}
		c.mu.Unlock()
		// Balance and allowance flags depend on the address, so the quote
		// refreshes right away rather than through the debouncer.
		if refresh {
			c.requestQuote(req)
		}

	case protocol.MsgApproved:
		c.mu.Lock()
		c.working = false
		refresh := c.amount.IsPositive() && c.haveAssets
		var req models.QuoteRequest
		if refresh {
			req = c.currentRequestLocked()
		}
		c.mu.Unlock()
		if refresh {
			c.requestQuote(req)
		}

	case protocol.MsgSwaped:
		var p protocol.SwapedPayload
		if err := env.Unmarshal(&p); err != nil {
			return
		}
		c.mu.Lock()
		c.working = false
		c.succeeded = true
		c.mu.Unlock()
		if err := c.sess.Send(protocol.MsgComplete, protocol.CompletePayload{TransactionHash: p.TransactionHash}); err != nil {
			Logger.Debug().Err(err).Msg("failed to send completion")
		}

	case protocol.MsgError:
		var p protocol.ErrorPayload
		_ = env.Unmarshal(&p)
		c.mu.Lock()
		c.working = false
		c.errorMessage = p.Message
		c.mu.Unlock()
	}
}

// applyQuote installs an incoming quote unless it is stale. With no pending
// amount (the initial reverse quote) the quoted source amount is adopted;
// otherwise the echoed inputs must match the current selection exactly.
func (c *Controller) applyQuote(q models.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.amount.IsPositive() {
		current := c.currentRequestLocked()
		if !q.Request.Matches(current) {
			Logger.Debug().
				Str("quoted", q.Request.SourceAmount.String()).
				Str("pending", c.amount.String()).
				Msg("discarding stale quote")
			return
		}
	} else {
		c.amount = q.FromAmount
	}
	c.quote = &q
}
