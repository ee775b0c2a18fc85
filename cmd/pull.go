package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/repo"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull commits from the remote",
	RunE:  runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Pulling from remote...")
	if err := repo.Pull(root); err != nil {
		return err
	}
	fmt.Fprintln(out, "Pull complete.")
	return nil
}
