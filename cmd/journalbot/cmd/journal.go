package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/journalbot/clock"
	"github.com/rustyeddy/journalbot/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade records from the SQLite journal.

Subcommands:
  trade   - Show one trade by per-user id
  open    - List a user's open trades
  recent  - List a user's most recent trades

Examples:
  journalbot journal trade 123456789 4
  journalbot journal open 123456789
  journalbot journal recent 123456789`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <telegram-id> <trade-id>",
	Short: "Show one trade by per-user id",
	Args:  cobra.ExactArgs(2),
	RunE:  runJournalTrade,
}

var journalOpenCmd = &cobra.Command{
	Use:   "open <telegram-id>",
	Short: "List a user's open trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOpen,
}

var journalRecentCmd = &cobra.Command{
	Use:   "recent <telegram-id>",
	Short: "List a user's most recent trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRecent,
}

var journalRecentLimit int

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalOpenCmd)
	journalCmd.AddCommand(journalRecentCmd)

	journalRecentCmd.Flags().IntVarP(&journalRecentLimit, "limit", "n", 5, "number of trades to show")
}

func openStore() (*journal.SQLite, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	store, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return store, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := parseID(args[0])
	if err != nil {
		return err
	}
	tradeID, err := parseID(args[1])
	if err != nil {
		return err
	}

	t, err := store.GetTrade(userID, tradeID)
	if err != nil {
		return err
	}
	printTrade(t)
	return nil
}

func runJournalOpen(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := parseID(args[0])
	if err != nil {
		return err
	}
	trades, err := store.ListOpen(userID)
	if err != nil {
		return err
	}
	printTrades(trades)
	return nil
}

func runJournalRecent(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := parseID(args[0])
	if err != nil {
		return err
	}
	trades, err := store.ListRecent(userID, journalRecentLimit)
	if err != nil {
		return err
	}
	printTrades(trades)
	return nil
}

func printTrades(trades []journal.Trade) {
	if len(trades) == 0 {
		fmt.Println("No trades.")
		return
	}
	for _, t := range trades {
		printTrade(t)
		fmt.Println()
	}
}

func printTrade(t journal.Trade) {
	fmt.Printf("#%d %s %s\n", t.TradeID, t.Pair, t.Direction)
	fmt.Printf("  entry %s  sl %s  tp %s\n", t.Entry, t.Stop, t.Target)
	fmt.Printf("  session %s  news %s  status %s", t.Session, t.NewsRisk, t.Status)
	if t.Result != journal.NoResult {
		fmt.Printf(" (%s)", t.Result)
	}
	fmt.Printf("\n  opened %s", clock.FormatDisplay(t.EntryTime))
	if !t.ExitTime.IsZero() {
		fmt.Printf("  closed %s", clock.FormatDisplay(t.ExitTime))
	}
	fmt.Println()
	if t.Notes != "" {
		fmt.Printf("  notes: %s\n", t.Notes)
	}
}
