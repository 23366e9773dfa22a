package main

import (
	"os"

	"github.com/username/tradejournal/backend/cmd/journalctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
