package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/journalbot/config"
)

var rootCmd = &cobra.Command{
	Use:   "journalbot",
	Short: "A Telegram trading journal with session tagging and news alerts",
	Long: `Journalbot is a personal trading journal that lives in Telegram.

It provides:
  - Trade logging tagged with the active market session
  - High-impact economic news detection around trade entries
  - Pre-event news alerts for subscribed users
  - A token-gated statistics dashboard API
  - CSV journal export`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var cfgPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "./config.yaml", "path to config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	return config.LoadFromFile(cfgPath)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}
