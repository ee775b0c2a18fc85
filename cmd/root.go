package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// verbose is set by the global --verbose/-v flag. Subcommands may check
// it to widen their own diagnostic output.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lit",
	Short: "Prompt-first version control for LLM-generated code",
	Long: `lit tracks natural-language prompts as the source of truth for a
generated codebase. Prompts are compiled into a pinned tree of source
files under code.lock/, tracked through a dependency graph that
determines what must regenerate when a prompt changes.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
