package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/dag"
	"github.com/clintonboys/lit/internal/prompt"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Inspect lit's resolved config, prompts, and dependency graph",
}

var debugConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Dump resolved configuration",
	RunE:  runDebugConfigCmd,
}

var debugPromptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Dump every parsed prompt",
	RunE:  runDebugPromptsCmd,
}

var debugDagCmd = &cobra.Command{
	Use:   "dag",
	Short: "Dump the prompt dependency graph",
	RunE:  runDebugDagCmd,
}

var debugAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Dump config, prompts, and the dependency graph",
	RunE:  runDebugAllCmd,
}

func init() {
	debugCmd.AddCommand(debugConfigCmd, debugPromptsCmd, debugDagCmd, debugAllCmd)
	rootCmd.AddCommand(debugCmd)
}

func runDebugConfigCmd(cmd *cobra.Command, args []string) error {
	cfg, root, err := findConfigForDebug()
	if err != nil {
		return err
	}
	dumpDebugConfig(cmd.OutOrStdout(), cfg, root)
	return nil
}

func runDebugPromptsCmd(cmd *cobra.Command, args []string) error {
	cfg, root, err := findConfigForDebug()
	if err != nil {
		return err
	}
	return dumpDebugPrompts(cmd.OutOrStdout(), cfg, root)
}

func runDebugDagCmd(cmd *cobra.Command, args []string) error {
	cfg, root, err := findConfigForDebug()
	if err != nil {
		return err
	}
	return dumpDebugDAG(cmd.OutOrStdout(), cfg, root)
}

func runDebugAllCmd(cmd *cobra.Command, args []string) error {
	cfg, root, err := findConfigForDebug()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	dumpDebugConfig(out, cfg, root)
	fmt.Fprintln(out)
	if err := dumpDebugPrompts(out, cfg, root); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return dumpDebugDAG(out, cfg, root)
}

func findConfigForDebug() (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	return config.FindAndLoad(cwd)
}

func dumpDebugConfig(out io.Writer, cfg *config.Config, root string) {
	fmt.Fprintln(out, "=== CONFIG (lit.toml) ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  project.name:       %s\n", cfg.Project.Name)
	fmt.Fprintf(out, "  project.version:    %s\n", cfg.Project.Version)
	fmt.Fprintf(out, "  project.mapping:    %s\n", cfg.Project.Mapping)
	fmt.Fprintf(out, "  language.default:   %s\n", cfg.Language.Default)
	fmt.Fprintf(out, "  language.version:   %s\n", cfg.Language.Version)
	if cfg.Framework != nil {
		fmt.Fprintf(out, "  framework.name:     %s\n", cfg.Framework.Name)
		fmt.Fprintf(out, "  framework.version:  %s\n", cfg.Framework.Version)
	} else {
		fmt.Fprintln(out, "  framework:          (none)")
	}
	fmt.Fprintf(out, "  model.provider:     %s\n", cfg.Model.Provider)
	fmt.Fprintf(out, "  model.model:        %s\n", cfg.Model.Model)
	fmt.Fprintf(out, "  model.temperature:  %v\n", cfg.Model.Temperature)
	if cfg.Model.Seed != nil {
		fmt.Fprintf(out, "  model.seed:         %d\n", *cfg.Model.Seed)
	} else {
		fmt.Fprintln(out, "  model.seed:         (none)")
	}
	if cfg.Model.API != nil {
		keyStatus := "NOT SET"
		if v := os.Getenv(cfg.Model.API.KeyEnv); v != "" {
			n := len(v)
			if n > 8 {
				n = 8
			}
			keyStatus = fmt.Sprintf("set (%s...)", v[:n])
		}
		fmt.Fprintf(out, "  model.api.key_env:  %s [%s]\n", cfg.Model.API.KeyEnv, keyStatus)
	}
	fmt.Fprintf(out, "  repo root:          %s\n", root)
}

func dumpDebugPrompts(out io.Writer, cfg *config.Config, root string) error {
	promptsDir := filepath.Join(root, "prompts")
	if _, err := os.Stat(promptsDir); err != nil {
		fmt.Fprintln(out, "=== PROMPTS ===")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  (no prompts/ directory found)")
		return nil
	}

	paths, err := prompt.Discover(promptsDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "=== PROMPTS (%d files) ===\n", len(paths))
	fmt.Fprintln(out)

	okCount, errCount := 0, 0
	for _, p := range paths {
		parsed, err := prompt.ParseFile(p, root, cfg)
		if err != nil {
			errCount++
			fmt.Fprintf(out, "  %s X ERROR\n", p)
			fmt.Fprintf(out, "    %v\n", err)
			fmt.Fprintln(out)
			continue
		}
		okCount++
		fmt.Fprintf(out, "  %s OK\n", parsed.Path)
		fmt.Fprintf(out, "    outputs: [%s]\n", strings.Join(parsed.Frontmatter.Outputs, ", "))
		if len(parsed.Frontmatter.Imports) == 0 {
			fmt.Fprintln(out, "    imports: (none — root node)")
		} else {
			fmt.Fprintf(out, "    imports: [%s]\n", strings.Join(parsed.Frontmatter.Imports, ", "))
		}
		if parsed.Frontmatter.Model != nil {
			fmt.Fprintf(out, "    model override: %s (%s)\n", parsed.Frontmatter.Model.Model, parsed.Frontmatter.Model.Provider)
		}
		if parsed.Frontmatter.Language != "" {
			fmt.Fprintf(out, "    language override: %s\n", parsed.Frontmatter.Language)
		}
		fmt.Fprintf(out, "    body: %d bytes, %d lines\n", len(parsed.Body), strings.Count(string(parsed.Body), "\n")+1)
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "  --- Summary: %d ok, %d errors ---\n", okCount, errCount)
	return nil
}

func dumpDebugDAG(out io.Writer, cfg *config.Config, root string) error {
	promptsDir := filepath.Join(root, "prompts")
	if _, err := os.Stat(promptsDir); err != nil {
		fmt.Fprintln(out, "=== DAG ===")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  (no prompts/ directory found)")
		return nil
	}

	paths, err := prompt.Discover(promptsDir)
	if err != nil {
		return err
	}

	var prompts []*prompt.Prompt
	for _, p := range paths {
		if parsed, err := prompt.ParseFile(p, root, cfg); err == nil {
			prompts = append(prompts, parsed)
		}
	}

	fmt.Fprintln(out, "=== DAG ===")
	fmt.Fprintln(out)

	graph, err := dag.Build(prompts)
	if err != nil {
		fmt.Fprintln(out, "  X DAG BUILD FAILED:")
		fmt.Fprintf(out, "    %v\n", err)
		return nil
	}

	order := graph.Order()
	fmt.Fprintf(out, "  Generation order (%d prompts):\n", graph.Len())
	for i, path := range order {
		node := graph.Node(path)
		if len(node.Imports) == 0 {
			fmt.Fprintf(out, "    %d. %s (root)\n", i+1, path)
		} else {
			fmt.Fprintf(out, "    %d. %s (%d deps)\n", i+1, path, len(node.Imports))
		}
	}
	fmt.Fprintln(out)

	var roots, leaves []string
	for _, path := range order {
		node := graph.Node(path)
		if len(node.Imports) == 0 {
			roots = append(roots, path)
		}
		if len(node.Dependents) == 0 {
			leaves = append(leaves, path)
		}
	}

	fmt.Fprintf(out, "  Root nodes (%d):\n", len(roots))
	for _, r := range roots {
		fmt.Fprintf(out, "    -> %s\n", r)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "  Leaf nodes (%d):\n", len(leaves))
	for _, l := range leaves {
		fmt.Fprintf(out, "    <- %s\n", l)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Dependency edges:")
	for _, path := range order {
		node := graph.Node(path)
		if len(node.Imports) == 0 {
			fmt.Fprintf(out, "    %s (root)\n", path)
		} else {
			for _, imp := range node.Imports {
				fmt.Fprintf(out, "    %s <- %s\n", path, imp)
			}
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Reverse dependencies (who depends on me):")
	for _, path := range order {
		node := graph.Node(path)
		if len(node.Dependents) == 0 {
			fmt.Fprintf(out, "    %s -> (leaf)\n", path)
		} else {
			fmt.Fprintf(out, "    %s -> [%s]\n", path, strings.Join(node.Dependents, ", "))
		}
	}
	fmt.Fprintln(out)

	for _, r := range roots {
		regen := graph.RegenerationSet([]string{r})
		fmt.Fprintf(out, "  If %s changes -> %d prompt(s) need regeneration\n", r, len(regen))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Validation:")
	fmt.Fprintln(out, "    OK no cycles detected")
	fmt.Fprintln(out, "    OK no output conflicts")
	fmt.Fprintln(out, "    OK all imports resolve")
	return nil
}
