// Package cmd implements the heroes command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// Command groups shown in help output.
const (
	groupHeroes = "heroes"
	groupSetup  = "setup"
)

// Global flags.
var (
	configFile string
	quiet      bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "heroes",
	Short: "Tour of heroes from the terminal",
	Long: `heroes - browse and edit the hero roster
  - list, add, rename and delete heroes
  - search as you type with "heroes pick"

Every command records what it did in a status log, printed to stderr
unless --quiet is given.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/heroes/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "do not print the status log")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupHeroes, Title: "Hero Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
	rootCmd.AddCommand(versionCmd)
}
