package host

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/portalswap/embed-swap-hub/adapters"
	"github.com/portalswap/embed-swap-hub/models"
	"github.com/portalswap/embed-swap-hub/protocol"
)

// event is the closed set of things the machine loop reacts to: inbound
// envelopes and adapter results. Exactly one handler body runs at a time;
// adapter calls are issued from the loop and post their results back here.
type event interface {
	isEvent()
}

// msgEvent wraps an inbound envelope that already passed session ingress.
type msgEvent struct {
	env protocol.Envelope
}

// assetsResolved is the metadata adapter's answer to the initial asset load.
type assetsResolved struct {
	sources []models.Asset
	target  models.Asset
	err     error
}

// quoteComputed carries a finished quote along with the request it was
// computed for, so stale answers can be discarded by comparison.
type quoteComputed struct {
	req   models.QuoteRequest
	quote models.Quote
	err   error
}

// reverseQuoted is the initial quote computed in the reverse direction from
// the configured default target amount.
type reverseQuoted struct {
	quote models.Quote
	err   error
}

// walletConnected is the wallet adapter's connect result.
type walletConnected struct {
	addr common.Address
	err  error
}

// accountChanged reports a wallet-side account switch after connection.
type accountChanged struct {
	addr common.Address
}

// approvalDone is the metadata adapter's approval confirmation.
type approvalDone struct {
	err error
}

// swapSubmitted is the submission result of the built trade.
type swapSubmitted struct {
	tx  adapters.TransactionHandle
	err error
}

func (msgEvent) isEvent()       {}
func (assetsResolved) isEvent() {}
func (quoteComputed) isEvent()  {}
func (reverseQuoted) isEvent()  {}
func (walletConnected) isEvent() {}
func (accountChanged) isEvent() {}
func (approvalDone) isEvent()   {}
func (swapSubmitted) isEvent()  {}
