// Package protocol defines the envelope schema and message types exchanged
// between the hosting page and the widget surface. Both contexts use it
// identically: every frame on the channel is one serialized Envelope.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MsgType tags an envelope. The set is closed; anything else is dropped by
// the receiver.
type MsgType string

const (
	// widget -> host
	MsgWidgetReady   MsgType = "widget-ready"
	MsgGetFromAssets MsgType = "get-from-assets"
	MsgGetQuote      MsgType = "get-quote"
	MsgConnectWallet MsgType = "connect-wallet"
	MsgApprove       MsgType = "approve"
	MsgSwap          MsgType = "swap"
	MsgComplete      MsgType = "complete"
	MsgCancel        MsgType = "cancel"

	// host -> widget
	MsgSetFromAssets MsgType = "set-from-assets"
	MsgSetQuote      MsgType = "set-quote"
	MsgConnected     MsgType = "connected"
	MsgApproved      MsgType = "approved"
	MsgSwaped        MsgType = "swaped"

	// either direction
	MsgError MsgType = "error"
)

// Known reports whether t belongs to the closed message-type set.
func (t MsgType) Known() bool {
	switch t {
	case MsgWidgetReady, MsgGetFromAssets, MsgGetQuote, MsgConnectWallet,
		MsgApprove, MsgSwap, MsgComplete, MsgCancel,
		MsgSetFromAssets, MsgSetQuote, MsgConnected, MsgApproved, MsgSwaped,
		MsgError:
		return true
	}
	return false
}

// Envelope is the only unit that crosses the message channel. The sid binds
// it to one widget session; receivers drop envelopes whose sid does not
// match their own.
type Envelope struct {
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	SID     string          `json:"sid"`
}

// Encode builds and serializes an envelope for transport.
func Encode(sid string, t MsgType, payload any) (string, error) {
	env := Envelope{Type: t, SID: sid}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s payload: %w", t, err)
		}
		env.Payload = raw
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(frame), nil
}

// Decode parses a raw frame into an envelope. A decode failure is not a
// protocol fault; the channel may carry frames destined for other consumers.
func Decode(frame string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(frame), &env); err != nil {
		return Envelope{}, fmt.Errorf("not an envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("not an envelope: missing type")
	}
	return env, nil
}

// Unmarshal decodes the payload into v.
func (e Envelope) Unmarshal(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}
