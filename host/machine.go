// Package host drives the swap from the hosting page's side: it answers the
// widget's asset and quote requests through the external adapters and walks
// the connect / approve / swap sequence to a single terminal outcome.
package host

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/portalswap/embed-swap-hub/adapters"
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

// State is where the machine currently is in the swap sequence.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateQuoting
	StateConnectingWallet
	StateApproving
	StateSwapping
	StateCompleted
	StateCancelled
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateQuoting:
		return "quoting"
	case StateConnectingWallet:
		return "connecting-wallet"
	case StateApproving:
		return "approving"
	case StateSwapping:
		return "swapping"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Machine is the host-side swap state machine. All mutable fields below the
// events channel are owned by the loop goroutine; adapter calls run in their
// own goroutines and report back as events.
type Machine struct {
	sess     *session.Session
	adapters adapters.Set
	spender  common.Address

	events   chan event
	done     chan struct{}
	stopOnce sync.Once
	state    atomic.Int32

	// loop-owned
	terminal     bool
	widgetReady  bool
	assetsSent   bool
	sourceAssets []models.Asset
	targetAsset  models.Asset
	address      common.Address
	hasAddress   bool
	lastQuote    *models.Quote
	pendingQuote *models.QuoteRequest
}

// New wires a machine to a session and its adapters. spender is the
// aggregator contract allowances are granted to.
func New(sess *session.Session, set adapters.Set, spender common.Address) *Machine {
	return &Machine{
		sess:     sess,
		adapters: set,
		spender:  spender,
		events:   make(chan event, 64),
		done:     make(chan struct{}),
	}
}

// Start binds the machine to the channel and begins resolving the asset
// universe. It returns immediately; everything else happens on the loop.
func (m *Machine) Start() {
	m.setState(StateLoading)
	m.sess.Bind(func(env protocol.Envelope) {
		m.post(msgEvent{env: env})
	})
	if m.adapters.Wallet != nil {
		m.adapters.Wallet.OnAccountChanged(func(addr common.Address) {
			m.post(accountChanged{addr: addr})
		})
		m.adapters.Wallet.OnNetworkChanged(func(string) {})
	}
	go m.loop()
	go m.resolveAssets()
}

// State reports the machine's current state.
func (m *Machine) State() State {
	return State(m.state.Load())
}

func (m *Machine) setState(s State) {
	m.state.Store(int32(s))
}

// post hands an event to the loop. Events arriving after the terminal state
// are discarded; a suspended adapter call cannot be aborted, so its eventual
// result lands here and goes nowhere.
func (m *Machine) post(ev event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func (m *Machine) loop() {
	for {
		select {
		case <-m.done:
			return
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

func (m *Machine) handle(ev event) {
	// A suspended adapter call cannot be aborted; its result may still be
	// buffered when the session ends. Discard everything once terminal.
	if m.terminal {
		return
	}
	switch ev := ev.(type) {
	case msgEvent:
		m.handleMessage(ev.env)
	case assetsResolved:
		if ev.err != nil {
			m.fail(ev.err)
			return
		}
		m.sourceAssets = ev.sources
		m.targetAsset = ev.target
		m.maybeSendAssets()
	case reverseQuoted:
		if ev.err != nil {
			m.fail(ev.err)
			return
		}
		// The user may have typed before the initial quote landed; their
		// request wins.
		if m.pendingQuote == nil && m.lastQuote == nil {
			m.lastQuote = &ev.quote
			m.send(protocol.MsgSetQuote, ev.quote)
		}
		if m.State() == StateLoading {
			m.setState(StateReady)
		}
	case quoteComputed:
		if ev.err != nil {
			m.fail(ev.err)
			return
		}
		if m.pendingQuote == nil || !ev.req.Matches(*m.pendingQuote) {
			Logger.Debug().Str("sid", m.sess.SID()).Msg("discarding stale quote")
			return
		}
		m.pendingQuote = nil
		m.lastQuote = &ev.quote
		m.send(protocol.MsgSetQuote, ev.quote)
		m.setState(StateReady)
	case walletConnected:
		if ev.err != nil {
			m.fail(ev.err)
			return
		}
		m.address = ev.addr
		m.hasAddress = true
		m.sess.ShowSurface()
		m.send(protocol.MsgConnected, protocol.ConnectedPayload{Address: ev.addr})
		m.setState(StateReady)
	case accountChanged:
		if m.hasAddress && ev.addr != m.address {
			m.address = ev.addr
			m.send(protocol.MsgConnected, protocol.ConnectedPayload{Address: ev.addr})
		}
	case approvalDone:
		if ev.err != nil {
			m.fail(ev.err)
			return
		}
		m.send(protocol.MsgApproved, nil)
		m.setState(StateReady)
	case swapSubmitted:
		if ev.err != nil {
			m.fail(ev.err)
			return
		}
		m.send(protocol.MsgSwaped, protocol.SwapedPayload{TransactionHash: ev.tx.Hash})
		m.finish(session.OutcomeCompleted, ev.tx.Hash, StateCompleted)
	}
}

func (m *Machine) handleMessage(env protocol.Envelope) {
	switch env.Type {
	case protocol.MsgWidgetReady, protocol.MsgGetFromAssets:
		m.widgetReady = true
		m.maybeSendAssets()

	case protocol.MsgGetQuote:
		var req models.QuoteRequest
		if err := env.Unmarshal(&req); err != nil {
			Logger.Debug().Err(err).Msg("ignoring malformed quote request")
			return
		}
		if !req.SourceAmount.IsPositive() {
			return
		}
		m.pendingQuote = &req
		m.setState(StateQuoting)
		go m.computeQuote(req, m.address, m.hasAddress)

	case protocol.MsgConnectWallet:
		if m.busy() {
			return
		}
		if m.hasAddress {
			m.send(protocol.MsgConnected, protocol.ConnectedPayload{Address: m.address})
			return
		}
		m.setState(StateConnectingWallet)
		m.sess.HideSurface()
		go m.connectWallet()

	case protocol.MsgApprove:
		var p protocol.ApprovePayload
		if err := env.Unmarshal(&p); err != nil {
			Logger.Debug().Err(err).Msg("ignoring malformed approve request")
			return
		}
		if !m.hasAddress || m.busy() {
			return
		}
		m.setState(StateApproving)
		go m.approve(p, m.address)

	case protocol.MsgSwap:
		var p protocol.SwapPayload
		if err := env.Unmarshal(&p); err != nil {
			Logger.Debug().Err(err).Msg("ignoring malformed swap request")
			return
		}
		if !m.hasAddress || m.busy() {
			return
		}
		if m.lastQuote != nil && !m.lastQuote.SufficientBalance {
			return
		}
		m.setState(StateSwapping)
		go m.executeSwap(p)

	case protocol.MsgComplete:
		var p protocol.CompletePayload
		_ = env.Unmarshal(&p)
		m.finish(session.OutcomeCompleted, p.TransactionHash, StateCompleted)

	case protocol.MsgCancel:
		m.finish(session.OutcomeCancelled, "", StateCancelled)

	case protocol.MsgError:
		var p protocol.ErrorPayload
		_ = env.Unmarshal(&p)
		m.finish(session.OutcomeError, p.Message, StateError)
	}
}

// busy reports whether an adapter call driven by a user intent is still in
// flight. A repeated connect, approve, or swap intent arriving before the
// first resolves would double the on-chain action, so it is dropped.
func (m *Machine) busy() bool {
	switch m.State() {
	case StateConnectingWallet, StateApproving, StateSwapping:
		return true
	}
	return false
}

func (m *Machine) maybeSendAssets() {
	if !m.widgetReady || m.assetsSent || len(m.sourceAssets) == 0 {
		return
	}
	m.assetsSent = true
	m.send(protocol.MsgSetFromAssets, protocol.FromAssetsPayload{
		SourceAssets: m.sourceAssets,
		TargetAsset:  m.targetAsset,
	})
	// Initial quote runs in the reverse direction: the configured default
	// amount is the target-side amount, and the quote answers how much of
	// the first source asset that costs.
	go m.reverseQuote(m.sourceAssets[0], m.targetAsset, m.sess.Config().DefaultAmount)
}

func (m *Machine) send(t protocol.MsgType, payload any) {
	if err := m.sess.Send(t, payload); err != nil {
		Logger.Warn().Err(err).Str("type", string(t)).Msg("failed to send envelope")
	}
}

// fail takes the terminal error path: notify the widget, then fire the
// hosting page's error callback exactly once.
func (m *Machine) fail(err error) {
	Logger.Error().Err(err).Str("sid", m.sess.SID()).Msg("adapter call failed")
	m.send(protocol.MsgError, protocol.ErrorPayload{Message: err.Error()})
	m.finish(session.OutcomeError, err.Error(), StateError)
}

func (m *Machine) finish(o session.Outcome, arg string, s State) {
	m.terminal = true
	m.setState(s)
	m.sess.Finish(o, arg)
	m.stopOnce.Do(func() { close(m.done) })
}
