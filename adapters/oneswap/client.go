// Package oneswap is an HTTP client for a OneSwap-style aggregator API. It
// implements the exchange and price-oracle adapter contracts consumed by
// the host-side state machine.
package oneswap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/portalswap/embed-swap-hub/adapters"
	"github.com/portalswap/embed-swap-hub/models"
)

// Client talks to one aggregator deployment.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient validates the base URL and builds a client with a 10 second
// request timeout.
func NewClient(apiURL string) (*Client, error) {
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid aggregator url %q", apiURL)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(apiURL, "/"),
	}, nil
}

var _ adapters.Exchange = (*Client)(nil)
var _ adapters.PriceOracle = (*Client)(nil)

// Quote asks the aggregator for the expected output and execution route of
// swapping amount of source into target.
func (c *Client) Quote(ctx context.Context, source, target models.Asset, amount decimal.Decimal) (adapters.Route, error) {
	fullURL := fmt.Sprintf(
		"%s/quote?src=%s&dst=%s&amount=%s",
		c.baseURL,
		url.QueryEscape(source.Address.Hex()),
		url.QueryEscape(target.Address.Hex()),
		url.QueryEscape(amount.String()),
	)

	var qr quoteResponse
	if err := c.getJSON(ctx, fullURL, &qr); err != nil {
		return adapters.Route{}, err
	}

	expected, err := decimal.NewFromString(qr.ExpectedOutput)
	if err != nil {
		return adapters.Route{}, fmt.Errorf("bad expectedOutput %q: %w", qr.ExpectedOutput, err)
	}
	impact, err := decimal.NewFromString(defaultZero(qr.PriceImpact))
	if err != nil {
		return adapters.Route{}, fmt.Errorf("bad priceImpact %q: %w", qr.PriceImpact, err)
	}
	fee, err := decimal.NewFromString(defaultZero(qr.FeeEstimate))
	if err != nil {
		return adapters.Route{}, fmt.Errorf("bad feeEstimate %q: %w", qr.FeeEstimate, err)
	}

	return adapters.Route{
		ExpectedOutput: expected,
		PriceImpact:    impact,
		FeeEstimate:    fee,
		Data:           qr.Route,
	}, nil
}

// BuildSwap turns a previously quoted route into a submittable transaction.
func (c *Client) BuildSwap(ctx context.Context, source, target models.Asset, amount decimal.Decimal, route adapters.Route) (adapters.SwapTransaction, error) {
	fullURL := fmt.Sprintf(
		"%s/swap?src=%s&dst=%s&amount=%s",
		c.baseURL,
		url.QueryEscape(source.Address.Hex()),
		url.QueryEscape(target.Address.Hex()),
		url.QueryEscape(amount.String()),
	)
	if len(route.Data) > 0 {
		fullURL += "&route=" + url.QueryEscape(string(route.Data))
	}

	var sr swapResponse
	if err := c.getJSON(ctx, fullURL, &sr); err != nil {
		return adapters.SwapTransaction{}, err
	}

	value := decimal.Zero
	if sr.Value != "" {
		var err error
		value, err = decimal.NewFromString(sr.Value)
		if err != nil {
			return adapters.SwapTransaction{}, fmt.Errorf("bad value %q: %w", sr.Value, err)
		}
	}
	if !common.IsHexAddress(sr.To) {
		return adapters.SwapTransaction{}, fmt.Errorf("bad to address %q", sr.To)
	}
	return adapters.SwapTransaction{
		To:    common.HexToAddress(sr.To),
		Value: value,
		Data:  sr.Data,
	}, nil
}

// USDPrice returns the aggregator's USD estimate for one unit of the asset.
func (c *Client) USDPrice(ctx context.Context, asset models.Asset) (decimal.Decimal, error) {
	fullURL := fmt.Sprintf("%s/price?asset=%s", c.baseURL, url.QueryEscape(asset.Address.Hex()))

	var pr priceResponse
	if err := c.getJSON(ctx, fullURL, &pr); err != nil {
		return decimal.Decimal{}, err
	}

	// The response keys the price by the asset address; take the single entry.
	for _, price := range pr {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("bad price %q: %w", price, err)
		}
		return p, nil
	}
	return decimal.Decimal{}, errors.New("price not found")
}

func (c *Client) getJSON(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("aggregator returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse aggregator response: %w", err)
	}
	return nil
}

func defaultZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
