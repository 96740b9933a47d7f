package config

// HubConfig is the operator-facing configuration for the swap widget hub.
type HubConfig struct {
	Surface  SurfaceConfig  `toml:"surface"`
	Exchange ExchangeConfig `toml:"exchange"`
	Quotes   QuotesConfig   `toml:"quotes"`
}

// SurfaceConfig configures the widget surface HTTP server.
type SurfaceConfig struct {
	Address               string   `toml:"address"`
	PublicURL             string   `toml:"public_url"`
	AllowedOrigins        []string `toml:"allowed_origins"`
	RatePerMinute         int      `toml:"rate_per_minute"`
	MaxConcurrentRequests int      `toml:"max_concurrent_requests"`
	EnableMetrics         bool     `toml:"enable_metrics"`
}

// ExchangeConfig points at the aggregator deployment and the contract that
// receives spend allowances.
type ExchangeConfig struct {
	APIURL         string `toml:"api_url"`
	SpenderAddress string `toml:"spender_address"`
}

// QuotesConfig tunes quoting behavior.
type QuotesConfig struct {
	DebounceMs int `toml:"debounce_ms"`
}
