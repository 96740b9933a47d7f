package models_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/portalswap/embed-swap-hub/models"
)

func TestWidgetConfigValidation(t *testing.T) {
	cases := []struct {
		name  string
		cfg   models.WidgetConfig
		field string
	}{
		{
			name: "valid erc20 target",
			cfg: models.WidgetConfig{
				TargetAssetAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
				DefaultAmount:      decimal.NewFromInt(100),
			},
		},
		{
			name: "valid native target without address",
			cfg: models.WidgetConfig{
				TargetAssetIsNative: true,
				DefaultAmount:       decimal.NewFromInt(1),
			},
		},
		{
			name: "zero default amount",
			cfg: models.WidgetConfig{
				TargetAssetIsNative: true,
				DefaultAmount:       decimal.Zero,
			},
			field: "defaultAmount",
		},
		{
			name: "negative default amount",
			cfg: models.WidgetConfig{
				TargetAssetIsNative: true,
				DefaultAmount:       decimal.NewFromInt(-5),
			},
			field: "defaultAmount",
		},
		{
			name: "bad target address",
			cfg: models.WidgetConfig{
				TargetAssetAddress: "nowhere",
				DefaultAmount:      decimal.NewFromInt(100),
			},
			field: "targetAssetAddress",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestTargetAddressResolution(t *testing.T) {
	native := models.WidgetConfig{TargetAssetIsNative: true, DefaultAmount: decimal.NewFromInt(1)}
	assert.Equal(t, models.NativeAssetAddress, native.TargetAddress())

	erc20 := models.WidgetConfig{
		TargetAssetAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		DefaultAmount:      decimal.NewFromInt(1),
	}
	assert.Equal(t, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), erc20.TargetAddress())
}

func TestQuoteRequestMatches(t *testing.T) {
	base := models.QuoteRequest{
		SourceAsset:  common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
		TargetAsset:  models.NativeAssetAddress,
		SourceAmount: decimal.NewFromInt(100),
	}

	same := base
	assert.That(t, base.Matches(same))

	// Equal decimal value in a different representation still matches.
	scaled := base
	scaled.SourceAmount = decimal.RequireFromString("100.00")
	assert.That(t, base.Matches(scaled))

	differentAmount := base
	differentAmount.SourceAmount = decimal.NewFromInt(50)
	assert.That(t, !base.Matches(differentAmount))

	differentSource := base
	differentSource.SourceAsset = common.HexToAddress("0x1f9840a85d5af5bf1d1762f925bdaddc4201f984")
	assert.That(t, !base.Matches(differentSource))
}

func TestSwapIntentRequest(t *testing.T) {
	dai := models.Asset{
		Symbol:   "DAI",
		Address:  common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
		Decimals: 18,
	}
	intent := models.SwapIntent{
		SourceAsset:  dai,
		TargetAsset:  models.NativeAsset(),
		SourceAmount: decimal.NewFromInt(25),
	}

	req := intent.Request()
	assert.Equal(t, dai.Address, req.SourceAsset)
	assert.Equal(t, uint8(18), req.SourceDecimals)
	assert.Equal(t, models.NativeAssetAddress, req.TargetAsset)
	assert.That(t, req.SourceAmount.Equal(decimal.NewFromInt(25)))
}

func TestAssetEqualComparesAddressOnly(t *testing.T) {
	a := models.Asset{Symbol: "DAI", Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")}
	b := models.Asset{Symbol: "RENAMED", Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")}
	assert.That(t, a.Equal(b))
	assert.That(t, !a.Equal(models.NativeAsset()))
}
