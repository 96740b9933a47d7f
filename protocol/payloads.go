package protocol

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/portalswap/embed-swap-hub/models"
)

// FromAssetsPayload carries the tradeable asset universe to the widget:
// the candidate source assets in display order and the single target asset.
type FromAssetsPayload struct {
	SourceAssets []models.Asset `json:"sourceAssets"`
	TargetAsset  models.Asset   `json:"targetAsset"`
}

// ConnectedPayload binds the wallet address the user connected with.
type ConnectedPayload struct {
	Address common.Address `json:"address"`
}

// ApprovePayload asks the host to grant the spender an allowance on the
// source asset. Amount is the exact pending amount; the host inflates it by
// its safety margin before calling the adapter.
type ApprovePayload struct {
	SourceAsset models.Asset    `json:"sourceAsset"`
	Amount      decimal.Decimal `json:"amount"`
}

// SwapPayload asks the host to execute the trade.
type SwapPayload struct {
	SourceAsset models.Asset    `json:"sourceAsset"`
	TargetAsset models.Asset    `json:"targetAsset"`
	Amount      decimal.Decimal `json:"amount"`
	Address     common.Address  `json:"address"`
}

// SwapedPayload reports a submitted trade back to the widget.
type SwapedPayload struct {
	TransactionHash string `json:"transactionHash"`
}

// CompletePayload is the widget's acknowledgement of a finished trade.
type CompletePayload struct {
	TransactionHash string `json:"transactionHash"`
}

// ErrorPayload carries a human-readable failure description.
type ErrorPayload struct {
	Message string `json:"message"`
}
