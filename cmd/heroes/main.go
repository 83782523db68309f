// Package main is the entry point for the heroes CLI.
package main

import (
	"os"

	"github.com/runger/heroes/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
