// Command deckctl translates a .pptx deck locally, running the same
// extraction, batching, and reassembly pipeline as the service against
// in-memory stores.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "deckctl",
	Short:         "Translate slide decks from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(translateCmd, languagesCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "deckctl: load .env: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		failure.Fprintf(os.Stderr, "deckctl: %v\n", err)
		os.Exit(1)
	}
}
