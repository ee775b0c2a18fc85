package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/repo"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <url>",
	Short: "Clone a lit repository from a remote URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runClone,
}

func init() {
	rootCmd.AddCommand(cloneCmd)
}

func runClone(cmd *cobra.Command, args []string) error {
	url := args[0]
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cloning %s...\n", url)

	repoName := strings.TrimSuffix(filepath.Base(strings.TrimSuffix(url, "/")), ".git")
	if err := repo.Clone(url, repoName); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cloneDir := filepath.Join(cwd, repoName)

	fmt.Fprintln(out)
	cfg, _, err := config.FindAndLoad(cloneDir)
	if err != nil {
		fmt.Fprintln(out, "Warning: cloned repository does not appear to be a lit project (no lit.toml found).")
		fmt.Fprintf(out, "  You can initialize it with: cd %s && lit init\n", repoName)
		return nil
	}

	fmt.Fprintf(out, "Cloned lit project: %s v%s\n", cfg.Project.Name, cfg.Project.Version)
	fmt.Fprintf(out, "  cd %s && lit status\n", repoName)
	return nil
}
