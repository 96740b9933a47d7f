package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/portalswap/embed-swap-hub/host"
	"github.com/portalswap/embed-swap-hub/session"
	"github.com/portalswap/embed-swap-hub/surface"
	"github.com/portalswap/embed-swap-hub/widget"
)

var log zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "swaphub",
	Short: "Embeddable swap widget hub",
	Long: `swaphub runs the host side of the embeddable swap widget: the render
surface server the widget locator points at, and the session machinery that
quotes, approves, and executes trades through the configured adapters.

Examples:
  swaphub serve --config ./hub-config.toml
  swaphub demo`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize zerolog with console writer
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the long-lived packages
	session.SetLogger(log)
	host.SetLogger(log)
	widget.SetLogger(log)
	surface.SetLogger(log)

	// Optional .env for local overrides; absence is fine
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
}
