// Package main is the entry point for the bridgectl CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/alertbridge/cmd/bridgectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
