// Package channel provides the in-process message channel between the two
// script contexts. Delivery is asynchronous and ordered per endpoint: frames
// posted to a peer are handed to its subscriber one at a time, in post
// order, on a dedicated dispatch goroutine. There is no delivery guarantee
// beyond that; frames posted while no subscriber is attached are discarded.
package channel

import (
	"errors"
	"sync"
)

// ErrOriginMismatch is returned when a frame is posted with a target origin
// the peer endpoint does not answer to.
var ErrOriginMismatch = errors.New("channel: target origin does not match peer")

// ErrClosed is returned when posting to a torn-down channel.
var ErrClosed = errors.New("channel: closed")

// Handler consumes one raw frame. It runs to completion before the next
// frame for the same endpoint is delivered.
type Handler func(frame string)

// Endpoint is one side of a channel pair.
type Endpoint struct {
	origin string
	peer   *Endpoint

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []string
	handler Handler
	closed  bool
}

// Pair creates a connected endpoint pair, one per origin, and starts their
// dispatch goroutines.
func Pair(originA, originB string) (*Endpoint, *Endpoint) {
	a := newEndpoint(originA)
	b := newEndpoint(originB)
	a.peer = b
	b.peer = a
	go a.dispatch()
	go b.dispatch()
	return a, b
}

func newEndpoint(origin string) *Endpoint {
	e := &Endpoint{origin: origin}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Origin returns the origin this endpoint answers to.
func (e *Endpoint) Origin() string {
	return e.origin
}

// PeerOrigin returns the counterpart's origin.
func (e *Endpoint) PeerOrigin() string {
	return e.peer.origin
}

// Post delivers a frame to the peer endpoint, constrained to targetOrigin.
// A mismatched target origin rejects delivery outright.
func (e *Endpoint) Post(frame, targetOrigin string) error {
	if targetOrigin != e.peer.origin {
		return ErrOriginMismatch
	}
	return e.peer.enqueue(frame)
}

func (e *Endpoint) enqueue(frame string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.queue = append(e.queue, frame)
	e.cond.Signal()
	return nil
}

// Subscribe attaches the frame handler. Only one subscriber is supported;
// a later call replaces the earlier one.
func (e *Endpoint) Subscribe(h Handler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// Unsubscribe detaches the handler. Frames arriving afterwards are dropped.
func (e *Endpoint) Unsubscribe() {
	e.Subscribe(nil)
}

// Close tears down the endpoint and stops its dispatch goroutine.
func (e *Endpoint) Close() {
	e.mu.Lock()
	e.closed = true
	e.handler = nil
	e.queue = nil
	e.cond.Signal()
	e.mu.Unlock()
}

// dispatch drains the queue, invoking the subscriber for each frame in
// order. Frames without a subscriber are dropped, mirroring a message
// listener that has not been attached yet.
func (e *Endpoint) dispatch() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			e.mu.Unlock()
			return
		}
		frame := e.queue[0]
		e.queue = e.queue[1:]
		h := e.handler
		e.mu.Unlock()

		if h != nil {
			h(frame)
		}
	}
}
