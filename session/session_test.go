package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/portalswap/embed-swap-hub/channel"
	"github.com/portalswap/embed-swap-hub/models"
	"github.com/portalswap/embed-swap-hub/protocol"
	"github.com/portalswap/embed-swap-hub/session"
)

type recordingSurface struct {
	mu       sync.Mutex
	shows    int
	hides    int
	discards int
}

func (s *recordingSurface) Show()    { s.mu.Lock(); s.shows++; s.mu.Unlock() }
func (s *recordingSurface) Hide()    { s.mu.Lock(); s.hides++; s.mu.Unlock() }
func (s *recordingSurface) Discard() { s.mu.Lock(); s.discards++; s.mu.Unlock() }

func (s *recordingSurface) counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows, s.hides, s.discards
}

func validConfig() models.WidgetConfig {
	return models.WidgetConfig{
		TargetAssetIsNative: true,
		DefaultAmount:       decimal.NewFromInt(100),
	}
}

func newPair(t *testing.T) (*channel.Endpoint, *channel.Endpoint) {
	t.Helper()
	a, b := channel.Pair("https://dapp.example", "https://widget.example")
	t.Cleanup(a.Close)
	t.Cleanup(b.Close)
	return a, b
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	hostEp, _ := newPair(t)
	surf := &recordingSurface{}

	bad := models.WidgetConfig{DefaultAmount: decimal.Zero, TargetAssetIsNative: true}
	_, err := session.New(bad, "https://dapp.example", hostEp, surf, session.Callbacks{})
	if err == nil {
		t.Fatal("expected validation error")
	}

	// Creation failed before any surface interaction.
	shows, hides, discards := surf.counts()
	assert.Equal(t, 0, shows)
	assert.Equal(t, 0, hides)
	assert.Equal(t, 0, discards)
}

func TestSessionsGetDistinctSIDs(t *testing.T) {
	hostEp, _ := newPair(t)
	s1, err := session.New(validConfig(), "https://dapp.example", hostEp, nil, session.Callbacks{})
	assert.NoError(t, err)
	s2, err := session.New(validConfig(), "https://dapp.example", hostEp, nil, session.Callbacks{})
	assert.NoError(t, err)

	if s1.SID() == s2.SID() {
		t.Fatalf("expected distinct sids, got %q twice", s1.SID())
	}
}

func TestAdoptReusesTokenSID(t *testing.T) {
	hostEp, widgetEp := newPair(t)
	hostSess, err := session.New(validConfig(), "https://dapp.example", hostEp, nil, session.Callbacks{})
	assert.NoError(t, err)

	widgetSess := session.Adopt(hostSess.Token(), widgetEp)
	assert.Equal(t, hostSess.SID(), widgetSess.SID())
	assert.Equal(t, "https://dapp.example", widgetSess.HostOrigin())
	assert.DeepEqual(t, validConfig(), widgetSess.Config())
}

func TestBindFiltersIngress(t *testing.T) {
	hostEp, widgetEp := newPair(t)
	sess, err := session.New(validConfig(), "https://dapp.example", hostEp, nil, session.Callbacks{})
	assert.NoError(t, err)

	delivered := make(chan protocol.Envelope, 8)
	sess.Bind(func(env protocol.Envelope) { delivered <- env })

	post := func(frame string) {
		t.Helper()
		assert.NoError(t, widgetEp.Post(frame, "https://dapp.example"))
	}

	// Malformed frame, foreign sid, and unknown type must all be dropped.
	post("{{{garbage")
	foreign, err := protocol.Encode("someone-else", protocol.MsgCancel, nil)
	assert.NoError(t, err)
	post(foreign)
	unknown, err := protocol.Encode(sess.SID(), protocol.MsgType("mystery"), nil)
	assert.NoError(t, err)
	post(unknown)

	good, err := protocol.Encode(sess.SID(), protocol.MsgWidgetReady, nil)
	assert.NoError(t, err)
	post(good)

	select {
	case env := <-delivered:
		assert.Equal(t, protocol.MsgWidgetReady, env.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the well-formed envelope to be delivered")
	}
	select {
	case env := <-delivered:
		t.Fatalf("unexpected extra delivery: %s", env.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFinishFiresExactlyOneCallback(t *testing.T) {
	hostEp, _ := newPair(t)
	surf := &recordingSurface{}

	var mu sync.Mutex
	var calls []string
	cb := session.Callbacks{
		OnComplete: func(tx string) { mu.Lock(); calls = append(calls, "complete:"+tx); mu.Unlock() },
		OnError:    func(msg string) { mu.Lock(); calls = append(calls, "error:"+msg); mu.Unlock() },
		OnCancel:   func() { mu.Lock(); calls = append(calls, "cancel"); mu.Unlock() },
	}
	sess, err := session.New(validConfig(), "https://dapp.example", hostEp, surf, cb)
	assert.NoError(t, err)

	sess.Finish(session.OutcomeCompleted, "0xabc")
	// Replayed terminal transitions must not fire anything further.
	sess.Finish(session.OutcomeCompleted, "0xabc")
	sess.Finish(session.OutcomeError, "late failure")
	sess.Teardown()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, len(calls))
	assert.Equal(t, "complete:0xabc", calls[0])
	assert.Equal(t, session.OutcomeCompleted, sess.Outcome())

	_, _, discards := surf.counts()
	assert.Equal(t, 1, discards)
}

func TestMessagesAfterTerminalAreDropped(t *testing.T) {
	hostEp, widgetEp := newPair(t)
	sess, err := session.New(validConfig(), "https://dapp.example", hostEp, nil, session.Callbacks{})
	assert.NoError(t, err)

	delivered := make(chan protocol.Envelope, 1)
	sess.Bind(func(env protocol.Envelope) { delivered <- env })

	sess.Teardown()
	assert.That(t, sess.Terminal())

	// Teardown closed the session's endpoint, so the peer cannot even
	// enqueue frames anymore.
	frame, err := protocol.Encode(sess.SID(), protocol.MsgGetQuote, nil)
	assert.NoError(t, err)
	assert.Equal(t, channel.ErrClosed, widgetEp.Post(frame, "https://dapp.example"))

	select {
	case env := <-delivered:
		t.Fatalf("unexpected delivery after terminal state: %s", env.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSendPostsToPeer(t *testing.T) {
	hostEp, widgetEp := newPair(t)
	sess, err := session.New(validConfig(), "https://dapp.example", hostEp, nil, session.Callbacks{})
	assert.NoError(t, err)

	received := make(chan string, 1)
	widgetEp.Subscribe(func(frame string) { received <- frame })

	assert.NoError(t, sess.Send(protocol.MsgSetQuote, nil))

	select {
	case frame := <-received:
		env, err := protocol.Decode(frame)
		assert.NoError(t, err)
		assert.Equal(t, protocol.MsgSetQuote, env.Type)
		assert.Equal(t, sess.SID(), env.SID)
	case <-time.After(2 * time.Second):
		t.Fatal("frame was not delivered to the peer")
	}
}
