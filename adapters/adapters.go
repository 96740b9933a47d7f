// Package adapters declares the narrow interfaces the swap core consumes.
// Wallet, exchange, metadata, and price lookup are external collaborators;
// the core only ever sees these contracts.
package adapters

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/portalswap/embed-swap-hub/models"
)

// Route is an execution route returned by the exchange for a concrete
// (source, target, amount) triple, together with the output it expects.
// Data is opaque to the core and handed back verbatim to BuildSwap.
type Route struct {
	ExpectedOutput decimal.Decimal `json:"expectedOutput"`
	PriceImpact    decimal.Decimal `json:"priceImpact"`
	FeeEstimate    decimal.Decimal `json:"feeEstimate"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// SwapTransaction is an unsigned, ready-to-submit trade built from a route.
type SwapTransaction struct {
	To    common.Address  `json:"to"`
	Value decimal.Decimal `json:"value"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// TransactionHandle identifies a submitted transaction. Completion is
// reported on submission, not confirmation.
type TransactionHandle struct {
	Hash string `json:"hash"`
}

// Wallet produces a spending address and a signing capability. The change
// subscriptions may be no-ops.
type Wallet interface {
	Connect(ctx context.Context) (common.Address, error)
	SignAndSubmit(ctx context.Context, tx SwapTransaction) (TransactionHandle, error)
	OnAccountChanged(fn func(common.Address))
	OnNetworkChanged(fn func(chainID string))
}

// Exchange quotes trades and builds executable swap transactions.
type Exchange interface {
	Quote(ctx context.Context, source, target models.Asset, amount decimal.Decimal) (Route, error)
	BuildSwap(ctx context.Context, source, target models.Asset, amount decimal.Decimal, route Route) (SwapTransaction, error)
}

// AssetMetadata resolves symbols and decimals for arbitrary asset addresses
// and answers allowance, approval, and balance questions.
type AssetMetadata interface {
	Resolve(ctx context.Context, addr common.Address) (symbol string, decimals uint8, err error)
	Allowance(ctx context.Context, owner, spender common.Address, asset models.Asset) (decimal.Decimal, error)
	Approve(ctx context.Context, owner, spender common.Address, asset models.Asset, amount decimal.Decimal) (TransactionHandle, error)
	BalanceOf(ctx context.Context, owner common.Address, asset models.Asset) (decimal.Decimal, error)
}

// PriceOracle estimates the USD value of one unit of an asset.
type PriceOracle interface {
	USDPrice(ctx context.Context, asset models.Asset) (decimal.Decimal, error)
}

// Set bundles everything the host-side state machine needs.
type Set struct {
	Wallet   Wallet
	Exchange Exchange
	Metadata AssetMetadata
	Oracle   PriceOracle
}
