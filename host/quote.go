package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/portalswap/embed-swap-hub/adapters"
	"github.com/portalswap/embed-swap-hub/models"
	"github.com/portalswap/embed-swap-hub/protocol"
)

// approvalMarginPercent inflates the approved allowance over the exact
// pending amount so small recalculations don't force a second approval.
const approvalMarginPercent = 5

var (
	feeHighWaterUSD     = decimal.NewFromInt(10)
	priceImpactHighMark = decimal.NewFromFloat(0.01)
)

// defaultSourceAssets is the curated source-side universe offered to the
// widget, in display order.
var defaultSourceAssets = []models.Asset{
	{Symbol: "DAI", Address: common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f"), Decimals: 18},
	{Symbol: "UNI", Address: common.HexToAddress("0x1f9840a85d5af5bf1d1762f925bdaddc4201f984"), Decimals: 18},
	models.NativeAsset(),
}

// resolveAssets loads the source universe and resolves the target asset's
// symbol and decimals.
func (m *Machine) resolveAssets() {
	ctx := context.Background()
	cfg := m.sess.Config()

	target := models.NativeAsset()
	if !cfg.TargetAssetIsNative {
		addr := cfg.TargetAddress()
		symbol, decimals, err := m.adapters.Metadata.Resolve(ctx, addr)
		if err != nil {
			m.post(assetsResolved{err: fmt.Errorf("failed to resolve target asset %s: %w", addr.Hex(), err)})
			return
		}
		target = models.Asset{
			Symbol:   strings.ToUpper(symbol),
			Address:  addr,
			Decimals: decimals,
		}
	}

	sources := make([]models.Asset, len(defaultSourceAssets))
	copy(sources, defaultSourceAssets)
	m.post(assetsResolved{sources: sources, target: target})
}

// computeQuote prices the request and derives the advisory flags the state
// machine trusts later: approval requirement and balance sufficiency.
// addr/hasAddr are snapshots taken when the request was dispatched.
func (m *Machine) computeQuote(req models.QuoteRequest, addr common.Address, hasAddr bool) {
	ctx := context.Background()

	source := m.assetFor(req.SourceAsset, req.SourceDecimals)
	target := m.assetFor(req.TargetAsset, req.TargetDecimals)

	route, err := m.adapters.Exchange.Quote(ctx, source, target, req.SourceAmount)
	if err != nil {
		m.post(quoteComputed{req: req, err: fmt.Errorf("quote failed: %w", err)})
		return
	}

	quote, err := m.buildQuote(ctx, req, source, target, req.SourceAmount, route.ExpectedOutput, route)
	if err != nil {
		m.post(quoteComputed{req: req, err: err})
		return
	}

	if hasAddr {
		if !source.IsNative {
			allowance, err := m.adapters.Metadata.Allowance(ctx, addr, m.spender, source)
			if err != nil {
				m.post(quoteComputed{req: req, err: fmt.Errorf("allowance lookup failed: %w", err)})
				return
			}
			quote.ApprovalRequired = allowance.LessThan(req.SourceAmount)
		}
		balance, err := m.adapters.Metadata.BalanceOf(ctx, addr, source)
		if err != nil {
			m.post(quoteComputed{req: req, err: fmt.Errorf("balance lookup failed: %w", err)})
			return
		}
		quote.SufficientBalance = balance.GreaterThanOrEqual(req.SourceAmount)
	}

	m.post(quoteComputed{req: req, quote: quote})
	quotesServed.Inc()
}

// reverseQuote prices the configured default amount on the target side and
// reports how much of the source asset it costs.
func (m *Machine) reverseQuote(source, target models.Asset, targetAmount decimal.Decimal) {
	ctx := context.Background()

	route, err := m.adapters.Exchange.Quote(ctx, target, source, targetAmount)
	if err != nil {
		m.post(reverseQuoted{err: fmt.Errorf("initial quote failed: %w", err)})
		return
	}
	fromAmount := route.ExpectedOutput

	req := models.QuoteRequest{
		SourceAsset:    source.Address,
		SourceDecimals: source.Decimals,
		TargetAsset:    target.Address,
		TargetDecimals: target.Decimals,
		SourceAmount:   fromAmount,
	}
	quote, err := m.buildQuote(ctx, req, source, target, fromAmount, targetAmount, route)
	if err != nil {
		m.post(reverseQuoted{err: err})
		return
	}
	m.post(reverseQuoted{quote: quote})
}

// buildQuote assembles the common quote fields: amounts, rate, USD
// estimates, and the fee / price-impact advisories.
func (m *Machine) buildQuote(
	ctx context.Context,
	req models.QuoteRequest,
	source, target models.Asset,
	fromAmount, toAmount decimal.Decimal,
	route adapters.Route,
) (models.Quote, error) {
	rate := decimal.Zero
	if fromAmount.IsPositive() {
		rate = toAmount.Div(fromAmount)
	}

	usdSource, err := m.adapters.Oracle.USDPrice(ctx, source)
	if err != nil {
		return models.Quote{}, fmt.Errorf("usd price lookup failed for %s: %w", source.Symbol, err)
	}
	usdTarget, err := m.adapters.Oracle.USDPrice(ctx, target)
	if err != nil {
		return models.Quote{}, fmt.Errorf("usd price lookup failed for %s: %w", target.Symbol, err)
	}

	return models.Quote{
		Request:           req,
		FromAmount:        fromAmount,
		ToAmount:          toAmount,
		Rate:              rate,
		UsdEstimateFrom:   usdSource.Mul(fromAmount),
		UsdEstimateTo:     usdTarget.Mul(toAmount),
		FeeEstimate:       route.FeeEstimate,
		FeeIsHigh:         route.FeeEstimate.GreaterThan(feeHighWaterUSD),
		PriceImpact:       route.PriceImpact,
		PriceImpactIsHigh: route.PriceImpact.GreaterThan(priceImpactHighMark),
		ApprovalRequired:  false,
		SufficientBalance: true,
	}, nil
}

// assetFor finds the resolved asset for an address, falling back to a bare
// asset when the address is not part of the loaded universe.
func (m *Machine) assetFor(addr common.Address, decimals uint8) models.Asset {
	if m.targetAsset.Address == addr {
		return m.targetAsset
	}
	for _, a := range m.sourceAssets {
		if a.Address == addr {
			return a
		}
	}
	return models.Asset{
		Address:  addr,
		Decimals: decimals,
		IsNative: addr == models.NativeAssetAddress,
	}
}

// connectWallet runs the wallet prompt. The surface stays hidden until the
// result lands back on the loop.
func (m *Machine) connectWallet() {
	addr, err := m.adapters.Wallet.Connect(context.Background())
	if err != nil {
		err = fmt.Errorf("wallet connect failed: %w", err)
	}
	m.post(walletConnected{addr: addr, err: err})
}

// approve grants the spender an allowance for the pending amount inflated
// by the fixed safety margin.
func (m *Machine) approve(p protocol.ApprovePayload, owner common.Address) {
	margin := decimal.NewFromInt(100 + approvalMarginPercent).Div(decimal.NewFromInt(100))
	inflated := p.Amount.Mul(margin)

	_, err := m.adapters.Metadata.Approve(context.Background(), owner, m.spender, p.SourceAsset, inflated)
	if err != nil {
		err = fmt.Errorf("approval failed: %w", err)
	}
	m.post(approvalDone{err: err})
}

// executeSwap is the two-step execution: fetch the route for the exact final
// amount, build the trade, and submit it through the wallet. Completion is
// signaled on submission success; there is no confirmation wait.
func (m *Machine) executeSwap(p protocol.SwapPayload) {
	ctx := context.Background()

	route, err := m.adapters.Exchange.Quote(ctx, p.SourceAsset, p.TargetAsset, p.Amount)
	if err != nil {
		m.post(swapSubmitted{err: fmt.Errorf("swap route failed: %w", err)})
		return
	}
	tx, err := m.adapters.Exchange.BuildSwap(ctx, p.SourceAsset, p.TargetAsset, p.Amount, route)
	if err != nil {
		m.post(swapSubmitted{err: fmt.Errorf("swap build failed: %w", err)})
		return
	}
	handle, err := m.adapters.Wallet.SignAndSubmit(ctx, tx)
	if err != nil {
		m.post(swapSubmitted{err: fmt.Errorf("swap submission failed: %w", err)})
		return
	}
	m.post(swapSubmitted{tx: handle})
}
