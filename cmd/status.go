package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/prompt"
	"github.com/clintonboys/lit/internal/repo"
	"github.com/clintonboys/lit/internal/style"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what's changed since the last commit",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, style.ProjectHeader(cfg.Project.Name, cfg.Project.Version))

	if _, err := repo.Open(root); err != nil {
		fmt.Fprintln(out, "  "+style.Hint("(no git repository — run `lit init` first)"))
		return showPromptsOnly(out, root)
	}

	head, err := repo.HeadCommit(root)
	if err != nil {
		return err
	}
	if head != nil {
		fmt.Fprintf(out, "  HEAD: %s %s\n", style.CommitHash(head.ShortHash), head.Message)
	} else {
		fmt.Fprintln(out, "  HEAD: "+style.Hint("(no commits)"))
	}

	promptsDir := filepath.Join(root, "prompts")
	if _, err := os.Stat(promptsDir); err == nil {
		if paths, err := prompt.Discover(promptsDir); err == nil {
			fmt.Fprintf(out, "  Prompts: %d\n", len(paths))
		}
	}
	fmt.Fprintln(out)

	raw, err := repo.Status(root)
	if err != nil {
		return err
	}
	cs := classifyStatus(raw)

	if !cs.hasChanges() {
		fmt.Fprintln(out, style.Hint("Nothing to commit (working tree clean)."))
		return nil
	}

	printSection := func(label string, paths []string, render func(string) string) {
		if len(paths) == 0 {
			return
		}
		fmt.Fprintln(out, style.Section(label))
		for _, p := range paths {
			fmt.Fprintln(out, render(p))
		}
	}

	printSection("New prompts:", cs.PromptsNew, style.FileNew)
	printSection("Modified prompts:", cs.PromptsModified, style.FileModified)
	printSection("Deleted prompts:", cs.PromptsDeleted, style.FileDeleted)
	printSection("New code files:", cs.CodeNew, style.FileNew)
	printSection("Modified code files (hand-edits?):", cs.CodeModified, style.FileModified)
	printSection("Config changes:", cs.ConfigModified, style.FileModified)

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s Use %s\n", fmt.Sprintf("%d file(s) changed.", cs.totalChanges()), `lit commit -m "message"`)

	return nil
}

func showPromptsOnly(out io.Writer, root string) error {
	promptsDir := filepath.Join(root, "prompts")
	if _, err := os.Stat(promptsDir); err != nil {
		fmt.Fprintln(out, style.Hint("No prompts/ directory found."))
		return nil
	}
	paths, err := prompt.Discover(promptsDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Prompts: %d\n", len(paths))
	for _, p := range paths {
		fmt.Fprintf(out, "    %s\n", p)
	}
	return nil
}
