package channel_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zeebo/assert"

	"github.com/portalswap/embed-swap-hub/channel"
)

func TestPostRejectsWrongTargetOrigin(t *testing.T) {
	a, b := channel.Pair("https://a.example", "https://b.example")
	defer a.Close()
	defer b.Close()

	err := a.Post("frame", "https://evil.example")
	assert.Equal(t, channel.ErrOriginMismatch, err)

	assert.NoError(t, a.Post("frame", "https://b.example"))
}

func TestDeliveryPreservesPostOrder(t *testing.T) {
	a, b := channel.Pair("https://a.example", "https://b.example")
	defer a.Close()
	defer b.Close()

	var mu sync.Mutex
	var got []string
	doneCh := make(chan struct{})
	b.Subscribe(func(frame string) {
		mu.Lock()
		got = append(got, frame)
		n := len(got)
		mu.Unlock()
		if n == 20 {
			close(doneCh)
		}
	})

	for i := 0; i < 20; i++ {
		assert.NoError(t, a.Post(fmt.Sprintf("frame-%d", i), "https://b.example"))
	}

	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("frames were not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, frame := range got {
		assert.Equal(t, fmt.Sprintf("frame-%d", i), frame)
	}
}

func TestFramesWithoutSubscriberAreDropped(t *testing.T) {
	a, b := channel.Pair("https://a.example", "https://b.example")
	defer a.Close()
	defer b.Close()

	// No subscriber on b yet; these should vanish without blocking.
	for i := 0; i < 5; i++ {
		assert.NoError(t, a.Post("early", "https://b.example"))
	}
	time.Sleep(50 * time.Millisecond)

	received := make(chan string, 1)
	b.Subscribe(func(frame string) { received <- frame })
	assert.NoError(t, a.Post("late", "https://b.example"))

	select {
	case frame := <-received:
		assert.Equal(t, "late", frame)
	case <-time.After(2 * time.Second):
		t.Fatal("frame posted after subscribe was not delivered")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	a, b := channel.Pair("https://a.example", "https://b.example")
	defer a.Close()
	defer b.Close()

	received := make(chan string, 8)
	b.Subscribe(func(frame string) { received <- frame })
	assert.NoError(t, a.Post("one", "https://b.example"))

	select {
	case frame := <-received:
		assert.Equal(t, "one", frame)
	case <-time.After(2 * time.Second):
		t.Fatal("first frame was not delivered")
	}

	b.Unsubscribe()
	assert.NoError(t, a.Post("two", "https://b.example"))
	select {
	case frame := <-received:
		t.Fatalf("unexpected delivery after unsubscribe: %q", frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPostAfterCloseFails(t *testing.T) {
	a, b := channel.Pair("https://a.example", "https://b.example")
	b.Close()
	a.Close()

	err := a.Post("frame", "https://b.example")
	assert.Equal(t, channel.ErrClosed, err)
}

func TestOrigins(t *testing.T) {
	a, b := channel.Pair("https://a.example", "https://b.example")
	defer a.Close()
	defer b.Close()

	assert.Equal(t, "https://a.example", a.Origin())
	assert.Equal(t, "https://b.example", a.PeerOrigin())
	assert.Equal(t, "https://a.example", b.PeerOrigin())
}
