package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/cache"
	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/dag"
	"github.com/clintonboys/lit/internal/patch"
	"github.com/clintonboys/lit/internal/prompt"
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Manage manual patches against generated code",
}

var patchSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Detect hand-edits under code.lock/ and save them as patches",
	RunE:  runPatchSave,
}

var patchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked patches",
	RunE:  runPatchList,
}

var patchDropCmd = &cobra.Command{
	Use:   "drop <path>",
	Short: "Discard a tracked patch",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatchDrop,
}

var patchShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show the diff for a tracked patch",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatchShow,
}

func init() {
	patchCmd.AddCommand(patchSaveCmd, patchListCmd, patchDropCmd, patchShowCmd)
	rootCmd.AddCommand(patchCmd)
}

func runPatchSave(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	codeLockDir := filepath.Join(root, "code.lock")
	if _, err := os.Stat(codeLockDir); err != nil {
		return fmt.Errorf("no code.lock/ directory found; run `lit regenerate` first")
	}

	actualCode, err := loadCodeFromDir(codeLockDir)
	if err != nil {
		return err
	}

	cacheStore := cache.New(filepath.Join(root, ".lit", "cache"))
	generatedCode, err := loadGeneratedFromCache(root, cfg, cacheStore)
	if err != nil {
		return err
	}
	if len(generatedCode) == 0 {
		fmt.Fprintln(out, "No cached generation results found. Run `lit regenerate` first to build the cache.")
		return nil
	}

	patchesDir := filepath.Join(root, ".lit", "patches")
	patchStore := patch.New(patchesDir)

	saved := 0
	for outputPath, actual := range actualCode {
		generated, ok := generatedCode[outputPath]
		if !ok || !patch.Detect([]byte(generated), []byte(actual)) {
			continue
		}
		if _, err := patchStore.Save(outputPath, []byte(generated), []byte(actual)); err != nil {
			return fmt.Errorf("failed to save patch for %s: %w", outputPath, err)
		}
		fmt.Fprintf(out, "  Saved patch: %s\n", outputPath)
		saved++
	}

	if saved == 0 {
		fmt.Fprintln(out, "No manual edits detected. code.lock/ matches cached generation.")
		return nil
	}
	fmt.Fprintf(out, "\n%d patch(es) saved to .lit/patches/\n", saved)
	return nil
}

func runPatchList(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	patchStore := patch.New(filepath.Join(root, ".lit", "patches"))
	paths, err := patchStore.List()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(out, "No patches tracked. Use `lit patch save` to save manual edits.")
		return nil
	}

	fmt.Fprintln(out, "Tracked patches:")
	for _, p := range paths {
		rec, err := patchStore.Load(p)
		if err != nil {
			fmt.Fprintf(out, "  %s\n", p)
			continue
		}
		added, removed := countDiffLines(rec.Diff)
		fmt.Fprintf(out, "  %s (+%d -%d)\n", p, added, removed)
	}
	fmt.Fprintf(out, "\n%d patch(es) total\n", len(paths))
	return nil
}

func runPatchDrop(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	path := args[0]
	patchStore := patch.New(filepath.Join(root, ".lit", "patches"))
	if !patchStore.Has(path) {
		return fmt.Errorf("no patch found for %s", path)
	}
	if err := patchStore.Drop(path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dropped patch for %s\n", path)
	fmt.Fprintln(out, "The generated version will be used on next regeneration.")
	return nil
}

func runPatchShow(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	path := args[0]
	patchStore := patch.New(filepath.Join(root, ".lit", "patches"))
	rec, err := patchStore.Load(path)
	if err != nil {
		return fmt.Errorf("no patch found for %s", path)
	}
	fmt.Fprintln(cmd.OutOrStdout(), rec.Diff)
	return nil
}

func countDiffLines(diff string) (added, removed int) {
	for _, line := range splitKeepEmpty(diff) {
		switch {
		case len(line) > 0 && line[0] == '+':
			added++
		case len(line) > 0 && line[0] == '-':
			removed++
		}
	}
	return added, removed
}

func loadCodeFromDir(dir string) (map[string]string, error) {
	code := make(map[string]string)
	err := filepath.Walk(dir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		code[prompt.NormalizePath(rel)] = string(content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return code, nil
}

// loadGeneratedFromCache replays the DAG's input-hash cascade to find,
// for each prompt, the cache entry its current prompt content maps to,
// mirroring what `lit regenerate` would reuse without calling an LLM.
func loadGeneratedFromCache(root string, cfg *config.Config, cacheStore *cache.Cache) (map[string]string, error) {
	promptsDir := filepath.Join(root, "prompts")
	if _, err := os.Stat(promptsDir); err != nil {
		return map[string]string{}, nil
	}

	paths, err := prompt.Discover(promptsDir)
	if err != nil {
		return nil, err
	}

	promptsMap := make(map[string]*prompt.Prompt, len(paths))
	var prompts []*prompt.Prompt
	for _, p := range paths {
		parsed, err := prompt.ParseFile(p, root, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", p, err)
		}
		promptsMap[parsed.Path] = parsed
		prompts = append(prompts, parsed)
	}

	graph, err := dag.Build(prompts)
	if err != nil {
		return nil, err
	}

	inputHashes := make(map[string]string, graph.Len())
	generated := make(map[string]string)

	for _, path := range graph.Order() {
		p := promptsMap[path]
		node := graph.Node(path)

		var importHashes []cache.ImportHash
		for _, imp := range node.Imports {
			importHashes = append(importHashes, cache.ImportHash{Path: imp, Hash: inputHashes[imp]})
		}

		model := effectiveModelConfig(cfg, p)
		hash := cache.ComputeInputHash(p, importHashes, model, effectiveLanguageConfig(cfg, p), cfg.FrameworkName())
		inputHashes[path] = hash

		if artifact, hit, _ := cacheStore.Get(hash); hit {
			for outPath, content := range artifact.Files {
				generated[outPath] = string(content)
			}
		}
	}

	return generated, nil
}

func effectiveModelConfig(cfg *config.Config, p *prompt.Prompt) config.ModelConfig {
	model := cfg.Model
	if ov := p.Frontmatter.Model; ov != nil {
		if ov.Provider != "" {
			model.Provider = ov.Provider
		}
		if ov.Model != "" {
			model.Model = ov.Model
		}
		if ov.Temperature != nil {
			model.Temperature = *ov.Temperature
		}
	}
	return model
}

func effectiveLanguageConfig(cfg *config.Config, p *prompt.Prompt) string {
	if p.Frontmatter.Language != "" {
		return p.Frontmatter.Language
	}
	return cfg.Language.Default
}
