package protocol_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/portalswap/embed-swap-hub/protocol"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	frame, err := protocol.Encode("sid-1", protocol.MsgError, protocol.ErrorPayload{Message: "boom"})
	assert.NoError(t, err)

	env, err := protocol.Decode(frame)
	assert.NoError(t, err)
	assert.Equal(t, protocol.MsgError, env.Type)
	assert.Equal(t, "sid-1", env.SID)

	var p protocol.ErrorPayload
	assert.NoError(t, env.Unmarshal(&p))
	assert.Equal(t, "boom", p.Message)
}

func TestEncodeWithoutPayload(t *testing.T) {
	frame, err := protocol.Encode("sid-1", protocol.MsgCancel, nil)
	assert.NoError(t, err)

	env, err := protocol.Decode(frame)
	assert.NoError(t, err)
	assert.Equal(t, protocol.MsgCancel, env.Type)
	assert.Equal(t, 0, len(env.Payload))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := protocol.Decode("not json at all"); err == nil {
		t.Error("expected error for non-JSON frame")
	}
	// Valid JSON that is not an envelope must also be rejected.
	if _, err := protocol.Decode(`{"hello":"world"}`); err == nil {
		t.Error("expected error for JSON without a type")
	}
}

func TestKnownTypes(t *testing.T) {
	for _, typ := range []protocol.MsgType{
		protocol.MsgWidgetReady, protocol.MsgGetFromAssets, protocol.MsgGetQuote,
		protocol.MsgConnectWallet, protocol.MsgApprove, protocol.MsgSwap,
		protocol.MsgComplete, protocol.MsgCancel, protocol.MsgSetFromAssets,
		protocol.MsgSetQuote, protocol.MsgConnected, protocol.MsgApproved,
		protocol.MsgSwaped, protocol.MsgError,
	} {
		if !typ.Known() {
			t.Errorf("expected %s to be known", typ)
		}
	}
	if protocol.MsgType("definitely-not-a-thing").Known() {
		t.Error("expected unknown type to be reported unknown")
	}
}

func TestSwapPayloadCarriesDecimalsExactly(t *testing.T) {
	amount, err := decimal.NewFromString("0.000000000000000042")
	assert.NoError(t, err)

	frame, err := protocol.Encode("sid-1", protocol.MsgApprove, protocol.ApprovePayload{Amount: amount})
	assert.NoError(t, err)

	env, err := protocol.Decode(frame)
	assert.NoError(t, err)

	var p protocol.ApprovePayload
	assert.NoError(t, env.Unmarshal(&p))
	assert.That(t, p.Amount.Equal(amount))
}
