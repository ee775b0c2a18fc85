// Package generator implements the pipeline driver: it walks the
// prompt DAG level by level, dispatches generation concurrently within
// a level behind a strict happens-before barrier, and reconciles each
// result against the cache and any tracked patch before writing it to
// disk.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clintonboys/lit/internal/cache"
	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/dag"
	"github.com/clintonboys/lit/internal/patch"
	"github.com/clintonboys/lit/internal/prompt"
	"github.com/clintonboys/lit/internal/provider"
	"github.com/clintonboys/lit/internal/record"
)

// ContextFetcher resolves external context references named in a
// prompt's frontmatter (github_issues, github_prs) into text blocks.
// Implemented by internal/ghcontext; nil disables enrichment entirely.
type ContextFetcher interface {
	FetchIssue(ctx context.Context, ref string) (string, error)
	FetchPR(ctx context.Context, ref string) (string, error)
}

// Options tunes one pipeline run.
type Options struct {
	// Force names prompt paths whose cache entry is bypassed even on a
	// hit. Empty means no forcing: the cache alone decides reuse.
	Force map[string]bool
	// NoPatches disables patch reconciliation; fresh output always wins.
	NoPatches bool
	// Concurrency bounds per-level fan-out. Zero means unbounded.
	Concurrency int
	// ProjectName populates the generation record's project name.
	ProjectName string
	// RegenerationSet restricts cache-check and provider dispatch to
	// these prompt paths; every other node in graph still contributes
	// its input hash (for downstream cascade) and its on-disk output
	// (for downstream context) but is never cache-checked or sent to a
	// provider. Nil means every node in graph is in the set.
	RegenerationSet []string
}

// Run processes every node in graph, in topological levels, and
// returns the resulting generation record. On any permanent failure
// the run aborts before returning a record; files already written to
// outputRoot for earlier levels are left in place, but no record is
// produced and the caller must not commit.
func Run(
	ctx context.Context,
	cfg *config.Config,
	prompts map[string]*prompt.Prompt,
	graph *dag.DAG,
	cacheStore *cache.Cache,
	patchStore *patch.Store,
	providers map[string]provider.Provider,
	fetcher ContextFetcher,
	outputRoot string,
	opts Options,
) (*record.Record, []string, error) {
	if err := writeStaticFiles(outputRoot, cfg.Static); err != nil {
		return nil, nil, err
	}

	regenSet := opts.RegenerationSet
	if regenSet == nil {
		regenSet = graph.Order()
	}
	inRegenSet := make(map[string]bool, len(regenSet))
	for _, p := range regenSet {
		inRegenSet[p] = true
	}

	var (
		mu           sync.Mutex
		hashes       = make(map[string]string, graph.Len())
		outputs      = make(map[string]map[string][]byte, graph.Len())
		promptRecs   []record.PromptRecord
		skippedPaths []string
		allWarnings  []string
	)

	for _, level := range graph.Levels() {
		g, gctx := errgroup.WithContext(ctx)
		if opts.Concurrency > 0 {
			g.SetLimit(opts.Concurrency)
		}

		results := make([]*nodeResult, len(level))
		for i, path := range level {
			i, path := i, path
			node := graph.Node(path)
			p := prompts[path]
			if p == nil {
				return nil, nil, fmt.Errorf("prompt %s present in DAG but not loaded", path)
			}

			var importHashes []cache.ImportHash
			mu.Lock()
			for _, imp := range node.Imports {
				importHashes = append(importHashes, cache.ImportHash{Path: imp, Hash: hashes[imp]})
			}
			mu.Unlock()

			g.Go(func() error {
				var res *nodeResult
				var err error
				if inRegenSet[path] {
					res, err = processNode(gctx, cfg, p, node, importHashes, outputs, &mu, cacheStore, patchStore, providers, fetcher, outputRoot, opts)
				} else {
					res, err = processSkippedNode(cfg, p, node, importHashes, outputRoot)
				}
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				results[i] = res
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, nil, err
		}

		for _, res := range results {
			mu.Lock()
			hashes[res.path] = res.inputHash
			outputs[res.path] = res.files
			mu.Unlock()
			if res.skipped {
				skippedPaths = append(skippedPaths, res.path)
			} else {
				promptRecs = append(promptRecs, res.toPromptRecord())
			}
			allWarnings = append(allWarnings, res.warnings...)
		}
	}

	rec := &record.Record{
		Timestamp:     time.Now().UTC().Format("20060102-150405"),
		ProjectName:   opts.ProjectName,
		ModelProvider: cfg.Model.Provider,
		ModelID:       cfg.Model.Model,
		Temperature:   cfg.Model.Temperature,
		Prompts:       promptRecs,
	}
	rec.Summarize()
	rec.Summary.Skipped = len(skippedPaths)

	return rec, allWarnings, nil
}

// nodeResult is what one prompt's processing contributes back to the
// driver. The driver owns all cross-node state; results flow back by
// value rather than through shared mutable references.
type nodeResult struct {
	path       string
	imports    []string
	inputHash  string
	files      map[string][]byte
	fromCache  bool
	tokensIn   uint64
	tokensOut  uint64
	durationMs uint64
	model      string
	costUSD    float64
	patches    map[string]record.PatchOutcome
	warnings   []string
	skipped    bool
}

func (r *nodeResult) toPromptRecord() record.PromptRecord {
	p := outputKeys(r.files)
	return record.PromptRecord{
		Path:       r.path,
		Imports:    r.imports,
		Outputs:    p,
		InputHash:  r.inputHash,
		FromCache:  r.fromCache,
		TokensIn:   r.tokensIn,
		TokensOut:  r.tokensOut,
		DurationMs: r.durationMs,
		CostUSD:    r.costUSD,
		Model:      r.model,
		Patches:    r.patches,
	}
}

func outputKeys(files map[string][]byte) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// processNode computes path's input hash, resolves its artifact (from
// cache or a fresh provider call), reconciles any tracked patch, and
// writes the resulting files to outputRoot.
func processNode(
	ctx context.Context,
	cfg *config.Config,
	p *prompt.Prompt,
	node *dag.Node,
	importHashes []cache.ImportHash,
	outputs map[string]map[string][]byte,
	outputsMu *sync.Mutex,
	cacheStore *cache.Cache,
	patchStore *patch.Store,
	providers map[string]provider.Provider,
	fetcher ContextFetcher,
	outputRoot string,
	opts Options,
) (*nodeResult, error) {
	model := effectiveModel(cfg, p)
	inputHash := cache.ComputeInputHash(p, importHashes, model, effectiveLanguage(cfg, p), cfg.FrameworkName())

	res := &nodeResult{path: p.Path, imports: p.Frontmatter.Imports, inputHash: inputHash, model: model.Model}

	useCache := !opts.Force[p.Path]
	if useCache {
		if artifact, hit, warning := cacheStore.Get(inputHash); hit {
			if warning != "" {
				res.warnings = append(res.warnings, warning)
			}
			res.files = artifact.Files
			res.fromCache = true
			res.tokensIn = artifact.TokensIn
			res.tokensOut = artifact.TokensOut
			res.durationMs = artifact.DurationMs
			res.costUSD = record.EstimateCost(model.Model, artifact.TokensIn, artifact.TokensOut, cfg.Model.Pricing)
			if err := writeFiles(outputRoot, artifact.Files); err != nil {
				return nil, err
			}
			return res, nil
		} else if warning != "" {
			res.warnings = append(res.warnings, warning)
		}
	}

	prov, ok := providers[model.Provider]
	if !ok {
		return nil, fmt.Errorf("no provider configured for %q", model.Provider)
	}

	reqCtx, err := assembleContext(ctx, p, node, outputs, outputsMu, fetcher)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sysPrompt := buildSystemPrompt(effectiveLanguage(cfg, p), cfg.FrameworkName(), p.Frontmatter.Outputs)
	genResp, err := provider.WithRetry(ctx, provider.DefaultRetryConfig(), func() (provider.GenerationResponse, error) {
		return prov.Generate(ctx, provider.GenerationRequest{
			SystemPrompt: sysPrompt,
			Context:      reqCtx,
			UserPrompt:   string(p.Body),
			Model:        model.Model,
			Temperature:  model.Temperature,
			Seed:         model.Seed,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	durationMs := uint64(time.Since(start).Milliseconds())

	parsed, warnings, err := ParseResponse(genResp.Content, p, cfg.Project.Mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated output: %w", err)
	}
	res.warnings = append(res.warnings, warnings...)

	files := make(map[string][]byte, len(parsed))
	for _, f := range parsed {
		files[f.Path] = []byte(f.Content)
	}

	finalFiles, patchOutcomes, err := reconcilePatches(patchStore, files, opts.NoPatches)
	if err != nil {
		return nil, err
	}

	if err := writeFiles(outputRoot, finalFiles); err != nil {
		return nil, err
	}

	if err := cacheStore.Put(inputHash, &cache.Artifact{
		Files:      finalFiles,
		TokensIn:   genResp.TokensIn,
		TokensOut:  genResp.TokensOut,
		Model:      genResp.Model,
		DurationMs: durationMs,
	}); err != nil {
		return nil, err
	}

	res.files = finalFiles
	res.tokensIn = genResp.TokensIn
	res.tokensOut = genResp.TokensOut
	res.durationMs = durationMs
	res.costUSD = record.EstimateCost(model.Model, genResp.TokensIn, genResp.TokensOut, cfg.Model.Pricing)
	res.patches = patchOutcomes
	return res, nil
}

// processSkippedNode computes path's cascading input hash for
// downstream nodes but performs no cache check and no provider call.
// Its on-disk outputs (from a prior run) are loaded so downstream
// nodes can still assemble context against them.
func processSkippedNode(
	cfg *config.Config,
	p *prompt.Prompt,
	node *dag.Node,
	importHashes []cache.ImportHash,
	outputRoot string,
) (*nodeResult, error) {
	model := effectiveModel(cfg, p)
	inputHash := cache.ComputeInputHash(p, importHashes, model, effectiveLanguage(cfg, p), cfg.FrameworkName())

	files, warnings := loadExistingFiles(outputRoot, p)

	return &nodeResult{
		path:      p.Path,
		imports:   p.Frontmatter.Imports,
		inputHash: inputHash,
		model:     model.Model,
		files:     files,
		skipped:   true,
		warnings:  warnings,
	}, nil
}

// loadExistingFiles reads p's declared outputs from outputRoot, for
// reuse as downstream context when p is outside the regeneration set.
// A missing or unreadable file produces a warning, not an error: the
// node it belongs to was never regenerated, so its absence on disk
// is a pre-existing condition rather than a failure of this run.
func loadExistingFiles(outputRoot string, p *prompt.Prompt) (map[string][]byte, []string) {
	files := make(map[string][]byte, len(p.Frontmatter.Outputs))
	var warnings []string
	for _, relPath := range p.Frontmatter.Outputs {
		content, err := os.ReadFile(filepath.Join(outputRoot, relPath))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: could not load existing output %s for a skipped prompt: %v", p.Path, relPath, err))
			continue
		}
		files[relPath] = content
	}
	return files, warnings
}

// reconcilePatches merges any tracked patch into freshly produced
// files. An output with no tracked patch passes through unchanged.
func reconcilePatches(patchStore *patch.Store, files map[string][]byte, disabled bool) (map[string][]byte, map[string]record.PatchOutcome, error) {
	if disabled {
		return files, nil, nil
	}
	final := make(map[string][]byte, len(files))
	outcomes := make(map[string]record.PatchOutcome)
	for path, content := range files {
		if !patchStore.Has(path) {
			final[path] = content
			continue
		}
		merged, conflicted, err := patchStore.Reconcile(path, content)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to reconcile patch for %s: %w", path, err)
		}
		final[path] = merged
		if conflicted {
			outcomes[path] = record.PatchOutcomeConflict
		} else {
			outcomes[path] = record.PatchOutcomeClean
		}
	}
	return final, outcomes, nil
}

// assembleContext builds the ordered block of upstream outputs, one
// labeled dump per import, plus any GitHub issue/PR context named in
// the prompt's frontmatter.
func assembleContext(ctx context.Context, p *prompt.Prompt, node *dag.Node, outputs map[string]map[string][]byte, outputsMu *sync.Mutex, fetcher ContextFetcher) (string, error) {
	var sb strings.Builder

	for _, imp := range node.Imports {
		outputsMu.Lock()
		files := outputs[imp]
		outputsMu.Unlock()

		paths := make([]string, 0, len(files))
		for path := range files {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		fmt.Fprintf(&sb, "--- context from %s ---\n", imp)
		for _, path := range paths {
			fmt.Fprintf(&sb, "=== FILE: %s ===\n%s\n", path, files[path])
		}
	}

	if fetcher != nil && p.Frontmatter.Context != nil {
		for _, issue := range p.Frontmatter.Context.GitHubIssues {
			body, err := fetcher.FetchIssue(ctx, issue)
			if err != nil {
				return "", fmt.Errorf("failed to fetch GitHub issue %s: %w", issue, err)
			}
			fmt.Fprintf(&sb, "--- context from issue %s ---\n%s\n", issue, body)
		}
		for _, pr := range p.Frontmatter.Context.GitHubPRs {
			body, err := fetcher.FetchPR(ctx, pr)
			if err != nil {
				return "", fmt.Errorf("failed to fetch GitHub PR %s: %w", pr, err)
			}
			fmt.Fprintf(&sb, "--- context from PR %s ---\n%s\n", pr, body)
		}
	}

	return sb.String(), nil
}

// buildSystemPrompt states the target language, framework, declared
// outputs and delimiter discipline the model must follow.
func buildSystemPrompt(language, framework string, outputs []string) string {
	var sb strings.Builder
	if framework != "" {
		fmt.Fprintf(&sb, "You are generating code for a %s project using %s. ", language, framework)
	} else {
		fmt.Fprintf(&sb, "You are generating code for a %s project. ", language)
	}
	sb.WriteString("For each file produced, emit a header `=== FILE: <path> ===` on its own line, ")
	sb.WriteString("followed by the file's contents. Do not wrap contents in decorative code fences.")
	if len(outputs) > 0 {
		fmt.Fprintf(&sb, " Expected output files: %s.", strings.Join(outputs, ", "))
	}
	return sb.String()
}

// effectiveModel merges a prompt's optional model override onto the
// project default.
func effectiveModel(cfg *config.Config, p *prompt.Prompt) config.ModelConfig {
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

// effectiveLanguage resolves a prompt's optional language override
// onto the project default.
func effectiveLanguage(cfg *config.Config, p *prompt.Prompt) string {
	if p.Frontmatter.Language != "" {
		return p.Frontmatter.Language
	}
	return cfg.Language.Default
}

func writeFiles(outputRoot string, files map[string][]byte) error {
	for relPath, content := range files {
		dest := filepath.Join(outputRoot, relPath)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory for %s: %w", relPath, err)
		}
		tmp := dest + ".tmp"
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("failed to write output file %s: %w", relPath, err)
		}
		if err := os.Rename(tmp, dest); err != nil {
			return fmt.Errorf("failed to finalize output file %s: %w", relPath, err)
		}
	}
	return nil
}

func writeStaticFiles(outputRoot string, files []config.StaticFile) error {
	for _, f := range files {
		dest := filepath.Join(outputRoot, f.Path)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for static file %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dest, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write static file %s: %w", f.Path, err)
		}
	}
	return nil
}
