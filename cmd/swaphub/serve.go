package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/portalswap/embed-swap-hub/adapters/oneswap"
	"github.com/portalswap/embed-swap-hub/config"
	"github.com/portalswap/embed-swap-hub/surface"
)

var serveConfigPath string

var errInvalidConfig = errors.New("invalid config")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the widget surface server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "./hub-config.toml", "hub config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	log.Info().Str("config", serveConfigPath).Msg("Starting swap widget hub")

	cfg, err := config.NewLoader().Load(serveConfigPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return err
	}
	if result := cfg.Validate(); !result.IsValid {
		for _, e := range result.Errors {
			log.Error().Str("problem", e).Msg("Invalid config")
		}
		return errInvalidConfig
	}

	// The aggregator client is constructed here so a bad URL fails at boot,
	// not on the first quote.
	if _, err := oneswap.NewClient(cfg.Exchange.APIURL); err != nil {
		log.Error().Err(err).Msg("Failed to build aggregator client")
		return err
	}

	server := surface.NewServer(buildServerConfig(cfg))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
		return err
	}
	return nil
}

// buildServerConfig converts the loaded HubConfig to surface.ServerConfig
func buildServerConfig(cfg *config.HubConfig) *surface.ServerConfig {
	serverConfig := &surface.ServerConfig{
		Address:        cfg.Surface.Address,
		AllowedOrigins: cfg.Surface.AllowedOrigins,
		EnableMetrics:  cfg.Surface.EnableMetrics,
	}
	if cfg.Surface.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.Surface.RatePerMinute
	}
	if cfg.Surface.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.Surface.MaxConcurrentRequests
	}
	return serverConfig
}
