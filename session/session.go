// Package session binds one hosting-page invocation to one widget instance.
// A session owns the correlation sid, the widget configuration, the channel
// endpoint, and the terminal-state bookkeeping that guarantees exactly one
// hosting-page callback fires.
package session

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/portalswap/embed-swap-hub/channel"
	"github.com/portalswap/embed-swap-hub/models"
	"github.com/portalswap/embed-swap-hub/protocol"
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

// Outcome is the terminal state of a session. Exactly one non-zero outcome
// is reached per session.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCompleted
	OutcomeError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeError:
		return "error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Callbacks are the hosting page's hooks. Exactly one of them fires per
// session. Any of them may be nil.
type Callbacks struct {
	OnComplete func(transactionHash string)
	OnError    func(message string)
	OnCancel   func()
}

// Surface is the handle to the rendered widget surface. Hide and Show cover
// the wallet-connect window where the surface yields to the wallet prompt;
// Discard releases it at teardown.
type Surface interface {
	Show()
	Hide()
	Discard()
}

// Session correlates envelopes between the two contexts and tracks the
// terminal state.
type Session struct {
	sid        string
	hostOrigin string
	peerOrigin string
	cfg        models.WidgetConfig
	endpoint   *channel.Endpoint
	surface    Surface
	callbacks  Callbacks

	mu      sync.Mutex
	outcome Outcome
}

// New creates the host-side session. The config is validated first: an
// invalid config fails creation before any surface exists or message is
// sent. The sid is a collision-resistant identifier, not a security token.
func New(cfg models.WidgetConfig, hostOrigin string, ep *channel.Endpoint, surface Surface, cb Callbacks) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		sid:        uuid.NewString(),
		hostOrigin: hostOrigin,
		peerOrigin: ep.PeerOrigin(),
		cfg:        cfg,
		endpoint:   ep,
		surface:    surface,
		callbacks:  cb,
	}, nil
}

// Adopt creates the widget-side session from a decoded surface token. The
// widget answers to the host origin carried in the token and reuses its sid.
func Adopt(tok protocol.SurfaceToken, ep *channel.Endpoint) *Session {
	return &Session{
		sid:        tok.SID,
		hostOrigin: tok.HostOrigin,
		peerOrigin: ep.PeerOrigin(),
		cfg:        tok.WidgetConfig(),
		endpoint:   ep,
	}
}

func (s *Session) SID() string                { return s.sid }
func (s *Session) HostOrigin() string         { return s.hostOrigin }
func (s *Session) Config() models.WidgetConfig { return s.cfg }

// Token builds the surface token for this session.
func (s *Session) Token() protocol.SurfaceToken {
	return protocol.NewSurfaceToken(s.sid, s.hostOrigin, s.cfg)
}

// Send serializes an envelope and posts it to the counterpart context,
// constrained to the expected origin.
func (s *Session) Send(t protocol.MsgType, payload any) error {
	frame, err := protocol.Encode(s.sid, t, payload)
	if err != nil {
		return err
	}
	return s.endpoint.Post(frame, s.peerOrigin)
}

// Bind subscribes fn to the channel behind the session's ingress filter.
// Frames that fail to decode are dropped silently; envelopes with a foreign
// sid or an unknown type are dropped with a diagnostic; anything arriving
// after the terminal state is ignored.
func (s *Session) Bind(fn func(protocol.Envelope)) {
	s.endpoint.Subscribe(func(frame string) {
		env, err := protocol.Decode(frame)
		if err != nil {
			// Not ours to report: the channel may carry frames for
			// other consumers in the same page.
			droppedEnvelopes.WithLabelValues("malformed").Inc()
			return
		}
		if env.SID != s.sid {
			Logger.Debug().Str("sid", env.SID).Str("self", s.sid).Msg("ignoring envelope for another session")
			droppedEnvelopes.WithLabelValues("foreign_sid").Inc()
			return
		}
		if !env.Type.Known() {
			Logger.Debug().Str("type", string(env.Type)).Msg("ignoring unknown envelope type")
			droppedEnvelopes.WithLabelValues("unknown_type").Inc()
			return
		}
		if s.Terminal() {
			droppedEnvelopes.WithLabelValues("terminal").Inc()
			return
		}
		fn(env)
	})
}

// Terminal reports whether the session reached its terminal state.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome != OutcomeNone
}

// Outcome returns the terminal outcome, OutcomeNone while live.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// HideSurface hides the rendered surface, if any.
func (s *Session) HideSurface() {
	if s.surface != nil {
		s.surface.Hide()
	}
}

// ShowSurface re-shows the rendered surface, if any.
func (s *Session) ShowSurface() {
	if s.surface != nil {
		s.surface.Show()
	}
}

// Finish moves the session to a terminal outcome. The first call wins:
// it closes the channel endpoint, discards the surface, and fires
// the matching hosting-page callback. Later calls are no-ops, so replayed
// completion or error messages cannot re-fire a callback.
func (s *Session) Finish(o Outcome, arg string) {
	s.mu.Lock()
	if s.outcome != OutcomeNone || o == OutcomeNone {
		s.mu.Unlock()
		return
	}
	s.outcome = o
	s.mu.Unlock()

	// The session owns its endpoint: closing it stops the dispatch goroutine
	// along with the subscription.
	s.endpoint.Close()
	if s.surface != nil {
		s.surface.Discard()
	}
	terminalSessions.WithLabelValues(o.String()).Inc()
	Logger.Info().Str("sid", s.sid).Str("outcome", o.String()).Msg("session finished")

	switch o {
	case OutcomeCompleted:
		if s.callbacks.OnComplete != nil {
			s.callbacks.OnComplete(arg)
		}
	case OutcomeError:
		if s.callbacks.OnError != nil {
			s.callbacks.OnError(arg)
		}
	case OutcomeCancelled:
		if s.callbacks.OnCancel != nil {
			s.callbacks.OnCancel()
		}
	}
}

// Teardown is the hosting page's handle to dismiss the widget. It takes the
// cancellation path; once the session is terminal it becomes a no-op.
func (s *Session) Teardown() {
	s.Finish(OutcomeCancelled, "")
}
