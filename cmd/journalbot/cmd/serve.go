package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/journalbot/alert"
	"github.com/rustyeddy/journalbot/clock"
	"github.com/rustyeddy/journalbot/config"
	"github.com/rustyeddy/journalbot/dashboard"
	"github.com/rustyeddy/journalbot/journal"
	"github.com/rustyeddy/journalbot/news"
	"github.com/rustyeddy/journalbot/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, the alert scheduler and the dashboard API",
	Long: `Run the full service: the Telegram command bot, the news alert
scheduler, the periodic calendar refresh and the dashboard HTTP API.

The process stops cleanly on SIGINT or SIGTERM.

Example:
  journalbot serve -f config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// alertTickInterval is how often the dispatcher looks for due events.
// The first tick is delayed slightly so startup refresh can finish.
const (
	alertTickInterval = time.Minute
	alertInitialDelay = 10 * time.Second
	tokenSweepEvery   = time.Hour
	tokenReuseMargin  = time.Hour
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()

	clk, err := clock.NewReal(cfg.Timezone)
	if err != nil {
		return err
	}

	store, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal db: %w", err)
	}
	defer store.Close()

	engine := news.NewEngine(
		news.NewFileStore(cfg.Calendar.CachePath, logger),
		news.NewFCSClient(cfg.Calendar.APIKey, clk.Location(), logger),
		clk, logger,
		config.Duration(cfg.Calendar.RiskWindow),
		config.Duration(cfg.Calendar.Retention),
	)

	client := telegram.NewClient(cfg.Telegram.Token)
	dispatcher := alert.NewDispatcher(engine, client, store, logger,
		config.Duration(cfg.Calendar.AlertLead),
		config.Duration(cfg.Calendar.AlertTol),
	)
	tokens := dashboard.NewTokenStore(config.Duration(cfg.Dashboard.TokenTTL), tokenReuseMargin, clk)
	bot := telegram.NewBot(client, store, engine, dispatcher, tokens,
		cfg.Dashboard.BaseURL, clk, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "db", cfg.Journal.DBPath, "dashboard", cfg.Dashboard.Addr,
		"timezone", cfg.Timezone)

	// Warm the cache before the first alert tick.
	if n := engine.Refresh(ctx); n > 0 {
		logger.Info("calendar warmed", "events", n)
	}

	errc := make(chan error, 2)

	go runAlertLoop(ctx, dispatcher, logger)
	go runRefreshLoop(ctx, cfg, engine, dispatcher, clk, logger)
	go runTokenSweep(ctx, tokens, logger)

	srv := &http.Server{Addr: cfg.Dashboard.Addr, Handler: dashboard.NewServer(store, tokens, logger)}
	go func() {
		logger.Info("dashboard listening", "addr", cfg.Dashboard.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("dashboard server: %w", err)
		}
	}()

	go func() {
		if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errc <- fmt.Errorf("bot: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errc:
		logger.Error("fatal", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("dashboard shutdown", "error", err)
	}
	return nil
}

// runAlertLoop polls for due events once a minute.
func runAlertLoop(ctx context.Context, d *alert.Dispatcher, logger *slog.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(alertInitialDelay):
	}

	ticker := time.NewTicker(alertTickInterval)
	defer ticker.Stop()

	d.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Poll(ctx)
		}
	}
}

// runRefreshLoop refreshes the calendar on the configured interval and
// once daily at the configured local time, clearing alert dedup state
// after each refresh.
func runRefreshLoop(ctx context.Context, cfg *config.Config, engine *news.Engine,
	d *alert.Dispatcher, clk clock.Clock, logger *slog.Logger) {
	interval := config.Duration(cfg.Calendar.Refresh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hour, minute := cfg.DailyRefreshClock()
	daily := time.NewTimer(untilNextDaily(clk.Now(), hour, minute))
	defer daily.Stop()

	refresh := func(reason string) {
		n := engine.Refresh(ctx)
		d.Reset()
		logger.Info("calendar refreshed", "reason", reason, "events", n)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh("interval")
		case <-daily.C:
			refresh("daily")
			daily.Reset(untilNextDaily(clk.Now(), hour, minute))
		}
	}
}

// untilNextDaily returns the duration until the next local occurrence
// of hour:minute after now.
func untilNextDaily(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

func runTokenSweep(ctx context.Context, tokens *dashboard.TokenStore, logger *slog.Logger) {
	ticker := time.NewTicker(tokenSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := tokens.Sweep(); n > 0 {
				logger.Debug("tokens swept", "removed", n)
			}
		}
	}
}
