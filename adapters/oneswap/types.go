package oneswap

import (
	"encoding/json"
)

// quoteResponse is the aggregator's /quote answer. Amounts arrive as decimal
// strings to avoid float precision loss.
type quoteResponse struct {
	ExpectedOutput string          `json:"expectedOutput"`
	PriceImpact    string          `json:"priceImpact"`
	FeeEstimate    string          `json:"feeEstimate"`
	Route          json.RawMessage `json:"route"`
}

// swapResponse is the aggregator's /swap answer: calldata for the trade.
type swapResponse struct {
	To    string          `json:"to"`
	Value string          `json:"value"`
	Data  json.RawMessage `json:"data"`
}

// priceResponse maps an asset address to its USD price as a decimal string.
type priceResponse map[string]string
