package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/repo"
	"github.com/clintonboys/lit/internal/style"
)

const defaultLitToml = `[project]
name = "my-project"
version = "0.1.0"
mapping = "manifest"

[language]
default = "python"
version = "3.12"

[model]
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"
temperature = 0.0
seed = 42

[model.api]
key_env = "LIT_API_KEY"
`

var initDefaults bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a lit repository in the current directory",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false, "write lit.toml without prompting")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configPath := filepath.Join(cwd, "lit.toml")
	gitDir := filepath.Join(cwd, ".git")
	_, configErr := os.Stat(configPath)
	_, gitErr := os.Stat(gitDir)
	hadConfig := configErr == nil
	hadGit := gitErr == nil

	if hadConfig && hadGit {
		return fmt.Errorf("already a lit repository: lit.toml and .git both present in %s", cwd)
	}

	if !hadConfig {
		if err := os.WriteFile(configPath, []byte(defaultLitToml), 0o644); err != nil {
			return fmt.Errorf("failed to write lit.toml: %w", err)
		}
	}

	for _, dir := range []string{"prompts", "code.lock", ".lit", filepath.Join(".lit", "cache"), filepath.Join(".lit", "generations"), filepath.Join(".lit", "patches")} {
		if err := os.MkdirAll(filepath.Join(cwd, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if !hadGit {
		if err := repo.Init(cwd); err != nil {
			return fmt.Errorf("failed to initialize git repository: %w", err)
		}
	}

	if err := repo.WriteGitignore(cwd, []string{".lit/cache/", ".lit/config"}); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}

	if err := repo.StageAll(cwd); err != nil {
		return fmt.Errorf("failed to stage initial files: %w", err)
	}
	changed, err := repo.HasChanges(cwd)
	if err != nil {
		return err
	}
	if changed {
		author := repo.Author{Name: "lit", Email: "lit@localhost", When: time.Now()}
		if _, err := repo.Commit(cwd, "lit init", author); err != nil {
			return fmt.Errorf("failed to create initial commit: %w", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), style.Success("Initialized lit repository"))
	if hadConfig {
		fmt.Fprintln(cmd.OutOrStdout(), style.Hint("  lit.toml already existed; left it untouched."))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), style.Hint("  Wrote a default lit.toml — edit it, then add prompts under prompts/."))
	}
	fmt.Fprintln(cmd.OutOrStdout(), style.Hint("  Next: lit add prompts/<file>.prompt.md, then lit regenerate."))
	return nil
}
