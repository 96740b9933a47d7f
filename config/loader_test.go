package config_test

import (
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/portalswap/embed-swap-hub/config"
)

func TestLoadValidConfig(t *testing.T) {
	cfg, err := config.NewLoader().Load("testdata/valid.toml")
	assert.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Surface.Address)
	assert.Equal(t, "https://widget.example", cfg.Surface.PublicURL)
	assert.Equal(t, 1, len(cfg.Surface.AllowedOrigins))
	assert.Equal(t, 120, cfg.Surface.RatePerMinute)
	assert.Equal(t, 200, cfg.Surface.MaxConcurrentRequests)
	assert.That(t, cfg.Surface.EnableMetrics)
	assert.Equal(t, "https://api.aggregator.example/v1", cfg.Exchange.APIURL)
	assert.Equal(t, 100, cfg.Quotes.DebounceMs)

	result := cfg.Validate()
	assert.That(t, result.IsValid)
	assert.Equal(t, 0, len(result.Errors))
}

func TestLoadRejectsNonTomlExtension(t *testing.T) {
	_, err := config.NewLoader().Load("testdata/valid.yaml")
	if err == nil {
		t.Fatal("expected error for non-toml file")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.NewLoader().Load("testdata/does-not-exist.toml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsBrokenToml(t *testing.T) {
	_, err := config.NewLoader().Load("testdata/broken.toml")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg, err := config.NewLoader().Load("testdata/invalid.toml")
	assert.NoError(t, err)

	result := cfg.Validate()
	assert.That(t, !result.IsValid)

	expected := []string{
		"surface.address is required",
		"surface.public_url is not a valid url",
		"surface.rate_per_minute must not be negative",
		"exchange.api_url is required",
		"exchange.spender_address is not a valid address",
		"quotes.debounce_ms must not be negative",
	}
	for _, want := range expected {
		found := false
		for _, got := range result.Errors {
			if strings.Contains(got, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing validation error %q in %v", want, result.Errors)
		}
	}
}
