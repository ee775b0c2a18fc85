package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/cache"
	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/dag"
	"github.com/clintonboys/lit/internal/generator"
	"github.com/clintonboys/lit/internal/ghcontext"
	"github.com/clintonboys/lit/internal/patch"
	"github.com/clintonboys/lit/internal/prompt"
	"github.com/clintonboys/lit/internal/provider"
	"github.com/clintonboys/lit/internal/record"
	"github.com/clintonboys/lit/internal/style"
)

var (
	regenAll        bool
	regenNoCache    bool
	regenNoPatches  bool
)

var regenerateCmd = &cobra.Command{
	Use:   "regenerate [path]",
	Short: "Compile prompts into generated code",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRegenerate,
}

func init() {
	regenerateCmd.Flags().BoolVar(&regenAll, "all", false, "select every prompt, even when a path is given (cached results are still reused; see --no-cache)")
	regenerateCmd.Flags().BoolVar(&regenNoCache, "no-cache", false, "bypass cached results for the selected prompts")
	regenerateCmd.Flags().BoolVar(&regenNoPatches, "no-patches", false, "skip manual-patch reconciliation; fresh output always wins")
	rootCmd.AddCommand(regenerateCmd)
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	promptsDir := filepath.Join(root, "prompts")
	if _, err := os.Stat(promptsDir); err != nil {
		return fmt.Errorf("no prompts/ directory found at %s\nHint: run `lit init` first", promptsDir)
	}

	paths, err := prompt.Discover(promptsDir)
	if err != nil {
		return err
	}

	promptsMap := make(map[string]*prompt.Prompt, len(paths))
	var prompts []*prompt.Prompt
	for _, p := range paths {
		parsed, err := prompt.ParseFile(p, root, cfg)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}
		promptsMap[parsed.Path] = parsed
		prompts = append(prompts, parsed)
	}

	graph, err := dag.Build(prompts)
	if err != nil {
		return err
	}

	regenSet, err := selectRegenerationSet(graph, args, regenAll)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, style.RegenHeader(len(regenSet), graph.Len()))

	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return fmt.Errorf("%w\nHint: set the key named in [model.api].key_env in lit.toml", err)
	}

	providers := map[string]provider.Provider{
		"anthropic": provider.NewAnthropicProvider(apiKey),
		"openai":    provider.NewOpenAIProvider(apiKey),
	}

	cacheDir := filepath.Join(root, ".lit", "cache")
	cacheStore := cache.New(cacheDir)
	if err := cacheStore.Init(); err != nil {
		return err
	}

	patchesDir := filepath.Join(root, ".lit", "patches")
	patchStore := patch.New(patchesDir)

	opts := generator.Options{
		NoPatches:       regenNoPatches,
		ProjectName:     cfg.Project.Name,
		RegenerationSet: regenSet,
	}
	if regenNoCache {
		opts.Force = make(map[string]bool, len(regenSet))
		for _, p := range regenSet {
			opts.Force[p] = true
		}
		fmt.Fprintln(out, style.Hint("Cache bypassed for the selected prompts (--no-cache)."))
	}
	if regenNoPatches {
		fmt.Fprintln(out, style.Hint("Patches disabled (--no-patches)."))
	}

	fetcher := ghcontext.NewClient(os.Getenv("GITHUB_TOKEN"))

	outputRoot := filepath.Join(root, "code.lock")

	ctx := context.Background()
	rec, warnings, err := generator.Run(ctx, cfg, promptsMap, graph, cacheStore, patchStore, providers, fetcher, outputRoot, opts)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	for _, w := range warnings {
		fmt.Fprintln(out, style.Warning(w))
	}

	generationsDir := filepath.Join(root, ".lit", "generations")
	if _, err := record.Write(generationsDir, rec); err != nil {
		fmt.Fprintln(out, style.Warning(fmt.Sprintf("failed to write generation record: %v", err)))
	}

	printRegenerateSummary(out, rec, time.Since(start))
	return nil
}

// selectRegenerationSet mirrors lit's default-is-total-order design: an
// explicit path narrows to that prompt's downstream closure, --all and
// the no-argument default both process every prompt (the cache makes
// the unaffected majority of that work a no-op).
func selectRegenerationSet(graph *dag.DAG, args []string, all bool) ([]string, error) {
	if all || len(args) == 0 {
		return graph.Order(), nil
	}
	target := prompt.NormalizePath(args[0])
	if graph.Node(target) == nil {
		return nil, fmt.Errorf("%s not found in the prompt graph\nHint: available prompts: %v", target, graph.Order())
	}
	return graph.RegenerationSet([]string{target}), nil
}

func printRegenerateSummary(out io.Writer, rec *record.Record, elapsed time.Duration) {
	var filesWritten, patchesApplied, patchesConflicted int
	for _, p := range rec.Prompts {
		filesWritten += len(p.Outputs)
		for _, outcome := range p.Patches {
			switch outcome {
			case record.PatchOutcomeClean:
				patchesApplied++
			case record.PatchOutcomeConflict:
				patchesConflicted++
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, style.Header("Regeneration Summary"))
	fmt.Fprintln(out, style.SummaryLine("Prompts", fmt.Sprintf("%d total (%d generated, %d cached, %d skipped)", rec.Summary.PromptCount+rec.Summary.Skipped, rec.Summary.PromptCount-rec.Summary.CacheHits, rec.Summary.CacheHits, rec.Summary.Skipped)))
	fmt.Fprintln(out, style.SummaryLine("Files written", fmt.Sprintf("%d", filesWritten)))
	if patchesApplied > 0 || patchesConflicted > 0 {
		fmt.Fprintln(out, style.SummaryLine("Patches", fmt.Sprintf("%d applied, %d conflicted", patchesApplied, patchesConflicted)))
	}
	fmt.Fprintln(out, style.SummaryLine("Tokens", fmt.Sprintf("%s in / %s out", record.FormatTokens(rec.Summary.TokensIn), record.FormatTokens(rec.Summary.TokensOut))))
	fmt.Fprintln(out, style.SummaryLine("Cost", style.Cost(record.FormatCost(rec.Summary.CostUSD))))
	fmt.Fprintln(out, style.SummaryLine("Duration", fmt.Sprintf("%.1fs", elapsed.Seconds())))

	for _, p := range rec.Prompts {
		for path, outcome := range p.Patches {
			switch outcome {
			case record.PatchOutcomeClean:
				fmt.Fprintln(out, style.PatchApplied(path))
			case record.PatchOutcomeConflict:
				fmt.Fprintln(out, style.PatchConflict(path))
			}
		}
	}
}
