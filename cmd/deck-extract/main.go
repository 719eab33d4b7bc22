// Command deck-extract prints the text units of a presentation as a single
// JSON document on stdout. Diagnostics go to stderr and failures exit 1.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/JaimeStill/deck-translate/internal/deck/pptx"
	"github.com/JaimeStill/deck-translate/internal/extraction"
	"github.com/spf13/cobra"
)

var pretty bool

var rootCmd = &cobra.Command{
	Use:           "deck-extract <path>",
	Short:         "Extract translatable text units from a .pptx file",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
}

func init() {
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "deck-extract: %v\n", err)
		os.Exit(1)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	units, err := pptx.Extract(data)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(extraction.NewPayload(units))
}
