package main

import (
	"os"

	"github.com/agentwire/didwba/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
