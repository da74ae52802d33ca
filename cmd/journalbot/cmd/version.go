package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the journalbot CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("journalbot version %s\n", version)
		fmt.Println("A Telegram trading journal with session tagging and news alerts")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
