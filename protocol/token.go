package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/portalswap/embed-swap-hub/models"
)

// LocatorParam is the query parameter the surface locator carries the
// encoded token under.
const LocatorParam = "widget"

// SurfaceToken is the reversible, text-safe blob embedded in the render
// surface locator. It is everything the widget needs to join the session:
// the correlation sid, the origin to answer to, and the widget config.
type SurfaceToken struct {
	SID                 string          `json:"sid"`
	HostOrigin          string          `json:"host"`
	TargetAssetIsNative bool            `json:"toNative"`
	TargetAssetAddress  string          `json:"toAddress,omitempty"`
	DefaultAmount       decimal.Decimal `json:"defaultAmount"`
}

// NewSurfaceToken builds the token for a session.
func NewSurfaceToken(sid, hostOrigin string, cfg models.WidgetConfig) SurfaceToken {
	return SurfaceToken{
		SID:                 sid,
		HostOrigin:          hostOrigin,
		TargetAssetIsNative: cfg.TargetAssetIsNative,
		TargetAssetAddress:  cfg.TargetAssetAddress,
		DefaultAmount:       cfg.DefaultAmount,
	}
}

// WidgetConfig recovers the widget configuration carried by the token.
func (t SurfaceToken) WidgetConfig() models.WidgetConfig {
	return models.WidgetConfig{
		TargetAssetIsNative: t.TargetAssetIsNative,
		TargetAssetAddress:  t.TargetAssetAddress,
		DefaultAmount:       t.DefaultAmount,
	}
}

// Encode serializes the token to a URL-safe string.
func (t SurfaceToken) Encode() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to marshal surface token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeSurfaceToken reverses Encode.
func DecodeSurfaceToken(s string) (SurfaceToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return SurfaceToken{}, fmt.Errorf("failed to decode surface token: %w", err)
	}
	var t SurfaceToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return SurfaceToken{}, fmt.Errorf("failed to parse surface token: %w", err)
	}
	if t.SID == "" {
		return SurfaceToken{}, fmt.Errorf("surface token missing sid")
	}
	return t, nil
}

// Locator builds the full surface URL with the token in its query portion.
func (t SurfaceToken) Locator(surfaceURL string) (string, error) {
	u, err := url.Parse(surfaceURL)
	if err != nil {
		return "", fmt.Errorf("invalid surface url %q: %w", surfaceURL, err)
	}
	encoded, err := t.Encode()
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(LocatorParam, encoded)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
