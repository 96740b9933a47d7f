package models

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// WidgetConfig is what the hosting page supplies when it creates a widget.
// Validated once at session creation; an invalid config fails the session
// before any surface is rendered or message sent.
type WidgetConfig struct {
	TargetAssetIsNative bool            `json:"targetAssetIsNative"`
	TargetAssetAddress  string          `json:"targetAssetAddress,omitempty"`
	DefaultAmount       decimal.Decimal `json:"defaultAmount"`
}

// ValidationError reports an invalid widget configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid widget config: %s: %s", e.Field, e.Reason)
}

// Validate checks the config the way the hosting page expects: a positive
// default amount, and a parseable target address unless the target is the
// native coin.
func (c WidgetConfig) Validate() error {
	if !c.DefaultAmount.IsPositive() {
		return &ValidationError{Field: "defaultAmount", Reason: "must be greater than zero"}
	}
	if !c.TargetAssetIsNative && !common.IsHexAddress(c.TargetAssetAddress) {
		return &ValidationError{Field: "targetAssetAddress", Reason: "not a valid address"}
	}
	return nil
}

// TargetAddress resolves the configured target asset address. For a native
// target the aggregator sentinel address is used.
func (c WidgetConfig) TargetAddress() common.Address {
	if c.TargetAssetIsNative {
		return NativeAssetAddress
	}
	return common.HexToAddress(c.TargetAssetAddress)
}
