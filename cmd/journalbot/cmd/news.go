package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/journalbot/clock"
	"github.com/rustyeddy/journalbot/config"
	"github.com/rustyeddy/journalbot/news"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Inspect and refresh the economic calendar cache",
	Long: `Work with the local economic calendar cache.

Subcommands:
  show     - List cached events for today
  refresh  - Fetch the calendar and rewrite the cache
  add      - Insert a manual event into the cache

Examples:
  journalbot news show
  journalbot news refresh
  journalbot news add 2026-09-01 14:30 HIGH "FOMC Statement"`,
}

var newsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cached events for today",
	Args:  cobra.NoArgs,
	RunE:  runNewsShow,
}

var newsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the calendar and rewrite the cache",
	Args:  cobra.NoArgs,
	RunE:  runNewsRefresh,
}

var newsAddCmd = &cobra.Command{
	Use:   "add <YYYY-MM-DD> <HH:MM> <HIGH|MEDIUM> <title>",
	Short: "Insert a manual event into the cache",
	Args:  cobra.MinimumNArgs(4),
	RunE:  runNewsAdd,
}

func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.AddCommand(newsShowCmd)
	newsCmd.AddCommand(newsRefreshCmd)
	newsCmd.AddCommand(newsAddCmd)
}

func newEngine() (*news.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()

	clk, err := clock.NewReal(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return news.NewEngine(
		news.NewFileStore(cfg.Calendar.CachePath, logger),
		news.NewFCSClient(cfg.Calendar.APIKey, clk.Location(), logger),
		clk, logger,
		config.Duration(cfg.Calendar.RiskWindow),
		config.Duration(cfg.Calendar.Retention),
	), nil
}

func runNewsShow(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	events, available := engine.Today()
	if !available {
		fmt.Println("Calendar feed unavailable; cache is empty.")
		return nil
	}
	if len(events) == 0 {
		fmt.Println("No high or medium impact events today.")
		return nil
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %-6s  %s", e.Time.Format("15:04"), e.Impact, e.Title)
		if e.Currency != "" {
			line += " (" + e.Currency + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func runNewsRefresh(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	n := engine.Refresh(cmd.Context())
	if _, available := engine.Today(); !available {
		return fmt.Errorf("calendar provider unavailable, cache cleared")
	}
	fmt.Printf("Loaded %d events.\n", n)
	return nil
}

func runNewsAdd(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ts, err := time.ParseInLocation("2006-01-02 15:04", args[0]+" "+args[1], loc)
	if err != nil {
		return fmt.Errorf("parse time: %w", err)
	}

	title := strings.Join(args[3:], " ")
	event := news.Event{Time: ts, Title: title, Impact: news.Impact(strings.ToUpper(args[2]))}
	if err := engine.AddEvent(event); err != nil {
		return err
	}
	fmt.Printf("Added %q at %s.\n", title, clock.FormatDisplay(ts))
	return nil
}
