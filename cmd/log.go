package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/repo"
	"github.com/clintonboys/lit/internal/style"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history",
	RunE:  runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 10, "number of commits to show")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	commits, err := repo.Log(root, logLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(commits) == 0 {
		fmt.Fprintln(out, style.Hint("No commits yet."))
		return nil
	}

	for _, c := range commits {
		fmt.Fprintf(out, "%s %s - %s\n",
			style.CommitHash(c.ShortHash),
			style.Datetime(c.Author.When.Format("2006-01-02 15:04:05")),
			c.Message)
	}

	if len(commits) == logLimit {
		fmt.Fprintln(out)
		fmt.Fprintln(out, style.Hint(fmt.Sprintf("(showing %d of possibly more — use -n to increase)", logLimit)))
	}

	return nil
}
