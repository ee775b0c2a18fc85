package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/style"
)

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Validate that a path is a tracked prompt file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func isPromptFile(path string) bool {
	return strings.HasSuffix(path, ".prompt.md")
}

func runAdd(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	target := args[0]
	full := target
	if !filepath.IsAbs(full) {
		full = filepath.Join(cwd, target)
	}

	info, err := os.Stat(full)
	if err != nil {
		return fmt.Errorf("path does not exist: %s\nHint: check the path and try again", full)
	}

	out := cmd.OutOrStdout()

	if !info.IsDir() {
		if !isPromptFile(full) {
			return fmt.Errorf("%s is not a .prompt.md file\nHint: lit only tracks prompt files (*.prompt.md)", target)
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			rel = full
		}
		if !strings.HasPrefix(filepath.ToSlash(rel), "prompts/") {
			fmt.Fprintln(out, style.Warning(fmt.Sprintf("%s is not inside prompts/. Move it to prompts/ for lit to track it.", rel)))
		}
		fmt.Fprintln(out, style.Success("Tracked: "+rel))
	} else {
		count := 0
		err := filepath.Walk(full, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && isPromptFile(p) {
				rel, relErr := filepath.Rel(root, p)
				if relErr != nil {
					rel = p
				}
				fmt.Fprintln(out, "  "+style.Success("Tracked: "+rel))
				count++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Fprintln(out, style.Warning(fmt.Sprintf("No .prompt.md files found in %s", target)))
		} else {
			fmt.Fprintln(out, style.Section(fmt.Sprintf("%d prompt(s) tracked.", count)))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, style.Hint("Note: `lit commit` automatically stages all prompts. `lit add` is a validation helper."))
	return nil
}
