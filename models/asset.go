package models

import (
	"github.com/ethereum/go-ethereum/common"
)

// NativeAssetAddress is the pseudo-address aggregators use for the chain's
// native coin. It never has an allowance, so swaps from it skip the approval
// step entirely.
var NativeAssetAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Asset describes one fungible asset the widget can trade. Immutable once
// resolved; the source side holds a small ordered list of candidates, the
// target side exactly one.
type Asset struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	IsNative bool           `json:"isNative"`
}

// NativeAsset returns the canonical native-coin asset.
func NativeAsset() Asset {
	return Asset{
		Symbol:   "ETH",
		Address:  NativeAssetAddress,
		Decimals: 18,
		IsNative: true,
	}
}

// Equal reports whether two assets identify the same token.
func (a Asset) Equal(b Asset) bool {
	return a.Address == b.Address
}
