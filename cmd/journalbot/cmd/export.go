package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/journalbot/journal"
)

var exportCmd = &cobra.Command{
	Use:   "export <telegram-id>",
	Short: "Export a user's journal as CSV",
	Long: `Write every trade for the given user as CSV, to stdout or to a file.

Example:
  journalbot export 123456789 -o trades.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var exportOutPath string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutPath, "out", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := parseID(args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOutPath != "" {
		f, err := os.Create(exportOutPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := journal.ExportCSV(store, userID, out); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if exportOutPath != "" {
		fmt.Printf("Exported to %s\n", exportOutPath)
	}
	return nil
}
