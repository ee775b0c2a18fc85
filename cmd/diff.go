package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/dag"
	"github.com/clintonboys/lit/internal/prompt"
	"github.com/clintonboys/lit/internal/repo"
	"github.com/clintonboys/lit/internal/style"
)

var (
	diffCode    bool
	diffAll     bool
	diffSummary bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show unified diffs of uncommitted changes",
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffCode, "code", false, "show diffs under code.lock/ instead of prompts/")
	diffCmd.Flags().BoolVar(&diffAll, "all", false, "show diffs across prompts, code, and config")
	diffCmd.Flags().BoolVar(&diffSummary, "summary", false, "show a DAG-aware impact summary instead of raw diffs")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}
	if _, err := repo.Open(root); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if diffSummary {
		return runDiffSummary(out, cfg, root)
	}

	full, err := repo.Diff(root)
	if err != nil {
		return err
	}

	scope := "prompts/"
	if diffAll {
		scope = "prompts, code, or config"
	} else if diffCode {
		scope = "code.lock/"
	}

	filtered := filterDiffByScope(full, diffAll, diffCode)
	if filtered == "" {
		fmt.Fprintf(out, "No changes in %s.\n", scope)
		return nil
	}
	fmt.Fprint(out, filtered)
	return nil
}

// filterDiffByScope keeps only the per-file hunks under the requested
// scope. repo.Diff emits one or more "--- a/<path>" blocks back to
// back; each block runs until the next "--- a/" line or EOF.
func filterDiffByScope(full string, all, code bool) string {
	if all {
		return full
	}
	prefix := "prompts/"
	if code {
		prefix = "code.lock/"
	}

	lines := splitKeepEmpty(full)
	var out []string
	keep := false
	for _, line := range lines {
		if len(line) > 6 && line[:6] == "--- a/" {
			keep = hasPrefix(line[6:], prefix)
		}
		if keep {
			out = append(out, line)
		}
	}
	return joinLines(out)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func splitKeepEmpty(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func runDiffSummary(out io.Writer, cfg *config.Config, root string) error {
	raw, err := repo.Status(root)
	if err != nil {
		return err
	}
	cs := classifyStatus(raw)

	hasPromptChanges := len(cs.PromptsNew)+len(cs.PromptsModified)+len(cs.PromptsDeleted) > 0
	hasCodeChanges := len(cs.CodeNew)+len(cs.CodeModified) > 0

	if !hasPromptChanges && !hasCodeChanges {
		fmt.Fprintln(out, "No changes in prompts or code.")
		return nil
	}

	fmt.Fprintln(out, style.Header("Changes Summary"))

	if hasPromptChanges {
		fmt.Fprintln(out, "  "+style.Section("Prompts:"))
		for _, p := range cs.PromptsNew {
			fmt.Fprintln(out, "    "+style.FileNew(p))
		}
		for _, p := range cs.PromptsModified {
			fmt.Fprintln(out, "    "+style.FileModified(p))
		}
		for _, p := range cs.PromptsDeleted {
			fmt.Fprintln(out, "    "+style.FileDeleted(p))
		}
	}

	promptsDir := filepath.Join(root, "prompts")
	if hasPromptChanges {
		if _, err := os.Stat(promptsDir); err == nil {
			paths, err := prompt.Discover(promptsDir)
			if err == nil {
				graph, regenSet, err := buildRegenSummary(paths, root, cfg, append(append([]string{}, cs.PromptsNew...), cs.PromptsModified...))
				if err == nil && len(regenSet) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "  "+style.Section("Impact (prompts that will regenerate):"))
					for _, p := range regenSet {
						fmt.Fprintf(out, "    -> %s\n", p)
					}

					var affected []string
					seen := map[string]bool{}
					for _, p := range regenSet {
						if node := graph.Node(p); node != nil {
							for _, o := range node.Outputs {
								codePath := filepath.ToSlash(filepath.Join("code.lock", o))
								if !seen[codePath] {
									seen[codePath] = true
									affected = append(affected, codePath)
								}
							}
						}
					}
					sort.Strings(affected)
					if len(affected) > 0 {
						fmt.Fprintln(out)
						fmt.Fprintln(out, "  "+style.Section("Generated code affected:"))
						for _, p := range affected {
							fmt.Fprintln(out, "    "+style.FileModified(p))
						}
					}

					fmt.Fprintln(out)
					fmt.Fprintf(out, "  %d prompt(s) will regenerate, %d unchanged\n", len(regenSet), graph.Len()-len(regenSet))
				}
			}
		}
	}

	if hasCodeChanges && !hasPromptChanges {
		fmt.Fprintln(out, "  "+style.Section("Code modifications (hand-edits):"))
		for _, p := range cs.CodeModified {
			fmt.Fprintln(out, "    "+style.FileModified(p))
		}
		for _, p := range cs.CodeNew {
			fmt.Fprintln(out, "    "+style.FileNew(p))
		}
	}

	return nil
}

func buildRegenSummary(paths []string, root string, cfg *config.Config, changed []string) (*dag.DAG, []string, error) {
	var prompts []*prompt.Prompt
	for _, p := range paths {
		parsed, err := prompt.ParseFile(p, root, cfg)
		if err != nil {
			continue
		}
		prompts = append(prompts, parsed)
	}
	graph, err := dag.Build(prompts)
	if err != nil {
		return nil, nil, err
	}
	return graph, graph.RegenerationSet(changed), nil
}
