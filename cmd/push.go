package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/repo"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push commits to the remote",
	RunE:  runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Pushing to remote...")
	if err := repo.Push(root); err != nil {
		return err
	}
	fmt.Fprintln(out, "Push complete.")
	return nil
}
