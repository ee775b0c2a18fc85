package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/repo"
	"github.com/clintonboys/lit/internal/style"
)

var commitMessage string

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Stage and commit prompts, generated code, and config",
	RunE:  runCommit,
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	commitCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if err := repo.StageAll(root); err != nil {
		return err
	}

	raw, err := repo.Status(root)
	if err != nil {
		return err
	}
	cs := classifyStatus(raw)

	if !cs.hasChanges() {
		fmt.Fprintln(out, style.Hint("Nothing to commit (working tree clean)."))
		fmt.Fprintln(out, style.Hint("Hint: run `lit regenerate` to generate code, then commit."))
		return nil
	}

	author := repo.Author{Name: "lit", Email: "lit@localhost", When: time.Now()}
	hash, err := repo.Commit(root, commitMessage, author)
	if err != nil {
		return err
	}

	short := hash
	if len(short) > 7 {
		short = short[:7]
	}
	fmt.Fprintln(out, style.Success("Created commit "+style.CommitHash(short)))
	fmt.Fprintln(out)

	if n := len(cs.PromptsNew) + len(cs.PromptsModified); n > 0 {
		fmt.Fprintln(out, style.SummaryLine("Prompts", fmt.Sprintf("%d changed", n)))
	}
	if n := len(cs.PromptsDeleted); n > 0 {
		fmt.Fprintln(out, style.SummaryLine("Prompts", fmt.Sprintf("%d deleted", n)))
	}
	if n := len(cs.CodeNew) + len(cs.CodeModified); n > 0 {
		fmt.Fprintln(out, style.SummaryLine("Code", fmt.Sprintf("%d file(s)", n)))
	}
	if n := len(cs.ConfigModified); n > 0 {
		fmt.Fprintln(out, style.SummaryLine("Config", fmt.Sprintf("%d file(s)", n)))
	}
	fmt.Fprintln(out, style.SummaryLine("Total", fmt.Sprintf("%d file(s)", cs.totalChanges())))

	return nil
}
