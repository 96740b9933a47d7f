package models

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// QuoteRequest carries the inputs a quote was computed for. The widget keeps
// the latest request it issued and compares it against the echo on each
// incoming quote, so responses computed for older inputs are discarded
// without a request-id scheme.
type QuoteRequest struct {
	SourceAsset    common.Address  `json:"sourceAsset"`
	SourceDecimals uint8           `json:"sourceDecimals"`
	TargetAsset    common.Address  `json:"targetAsset"`
	TargetDecimals uint8           `json:"targetDecimals"`
	SourceAmount   decimal.Decimal `json:"sourceAmount"`
}

// Matches reports whether another request was computed for the same inputs.
func (r QuoteRequest) Matches(o QuoteRequest) bool {
	return r.SourceAsset == o.SourceAsset &&
		r.TargetAsset == o.TargetAsset &&
		r.SourceAmount.Equal(o.SourceAmount)
}

// Quote is the full pricing picture for one (source, target, amount) triple.
// Recomputed on every request and replaced wholesale, never mutated in place.
type Quote struct {
	Request           QuoteRequest    `json:"request"`
	FromAmount        decimal.Decimal `json:"fromAmount"`
	ToAmount          decimal.Decimal `json:"toAmount"`
	Rate              decimal.Decimal `json:"rate"`
	UsdEstimateFrom   decimal.Decimal `json:"usdEstimateFrom"`
	UsdEstimateTo     decimal.Decimal `json:"usdEstimateTo"`
	FeeEstimate       decimal.Decimal `json:"feeEstimate"`
	FeeIsHigh         bool            `json:"feeIsHigh"`
	PriceImpact       decimal.Decimal `json:"priceImpact"`
	PriceImpactIsHigh bool            `json:"priceImpactIsHigh"`
	ApprovalRequired  bool            `json:"approvalRequired"`
	SufficientBalance bool            `json:"sufficientBalance"`
}

// SwapIntent is the widget-owned selection: which assets to trade and the
// pending source amount. The host side mirrors it through messages rather
// than sharing it.
type SwapIntent struct {
	SourceAsset  Asset
	TargetAsset  Asset
	SourceAmount decimal.Decimal
}

// Request builds the quote request for the current intent.
func (i SwapIntent) Request() QuoteRequest {
	return QuoteRequest{
		SourceAsset:    i.SourceAsset.Address,
		SourceDecimals: i.SourceAsset.Decimals,
		TargetAsset:    i.TargetAsset.Address,
		TargetDecimals: i.TargetAsset.Decimals,
		SourceAmount:   i.SourceAmount,
	}
}
