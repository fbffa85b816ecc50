package main

import (
	"os"

	"github.com/solkit/connectord/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
