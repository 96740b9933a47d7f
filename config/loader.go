// Package config loads and validates the hub's TOML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"
)

// Loader loads and parses hub configuration files.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads a hub configuration from a TOML file.
func (l *Loader) Load(filePath string) (*HubConfig, error) {
	if !strings.HasSuffix(filePath, ".toml") {
		return nil, fmt.Errorf("config file must be a .toml file: %s", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	var cfg HubConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return &cfg, nil
}

// ValidationResult collects everything wrong with a config.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// Validate checks the loaded config for the mistakes that would otherwise
// surface as confusing runtime failures.
func (c *HubConfig) Validate() ValidationResult {
	var errs []string

	if c.Surface.Address == "" {
		errs = append(errs, "surface.address is required")
	}
	if c.Surface.PublicURL != "" {
		if u, err := url.Parse(c.Surface.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("surface.public_url is not a valid url: %s", c.Surface.PublicURL))
		}
	}
	if c.Surface.RatePerMinute < 0 {
		errs = append(errs, "surface.rate_per_minute must not be negative")
	}

	if c.Exchange.APIURL == "" {
		errs = append(errs, "exchange.api_url is required")
	} else if u, err := url.Parse(c.Exchange.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("exchange.api_url is not a valid url: %s", c.Exchange.APIURL))
	}
	if !common.IsHexAddress(c.Exchange.SpenderAddress) {
		errs = append(errs, fmt.Sprintf("exchange.spender_address is not a valid address: %s", c.Exchange.SpenderAddress))
	}

	if c.Quotes.DebounceMs < 0 {
		errs = append(errs, "quotes.debounce_ms must not be negative")
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
