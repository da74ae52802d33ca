package main

import (
	"os"

	"github.com/rustyeddy/journalbot/cmd/journalbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
