// Package prompt parses prompt files (.prompt.md) into structured
// records: frontmatter, body, declared imports and outputs.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/clintonboys/lit/internal/config"
)

const delimiter = "---"

var importMarker = regexp.MustCompile(`@import\(([^)]+)\)`)

// languageExtensions maps a project's default language to the file
// extension used to synthesize outputs in "direct" mapping mode. The
// source this tool was distilled from leaves this table unspecified;
// unrecognized languages are a hard error rather than a guess.
var languageExtensions = map[string]string{
	"python":     ".py",
	"go":         ".go",
	"javascript": ".js",
	"typescript": ".ts",
	"rust":       ".rs",
	"java":       ".java",
	"ruby":       ".rb",
}

// Frontmatter is the structured header of a prompt file.
type Frontmatter struct {
	Outputs []string         `toml:"outputs"`
	Imports []string         `toml:"imports"`
	Model   *ModelOverride   `toml:"model"`
	Language string          `toml:"language"`
	Context *ContextRefs     `toml:"context"`
}

// ModelOverride lets a single prompt override the project's default
// model configuration.
type ModelOverride struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	Temperature *float64 `toml:"temperature"`
}

// ContextRefs names external context sources (issue/PR bodies) to fetch
// and append ahead of the user prompt.
type ContextRefs struct {
	GitHubIssues []string `toml:"github_issues"`
	GitHubPRs    []string `toml:"github_prs"`
}

// Prompt is a fully parsed prompt file.
type Prompt struct {
	Path        string // repo-relative, forward-slash, lexically normalized
	Raw         []byte
	Frontmatter Frontmatter
	Body        []byte

	// Warnings collected during parsing (non-fatal).
	Warnings []string
}

// NormalizePath converts p to a forward-slash, lexically clean,
// repo-relative path. Used uniformly for hashing and equality.
func NormalizePath(p string) string {
	p = filepath.ToSlash(p)
	p = cleanSlashPath(p)
	return strings.TrimPrefix(p, "./")
}

// cleanSlashPath lexically cleans a forward-slash path without relying
// on path.Clean, which normalizes to OS separators on some platforms.
func cleanSlashPath(p string) string {
	parts := strings.Split(p, "/")
	var out []string
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}
	return strings.Join(out, "/")
}

// Parse parses raw prompt bytes at repoPath (already repo-relative).
// root is the repository root, used to resolve mapping modes that read
// adjacent files (modular mode's module descriptor) from an absolute
// path rather than relative to the process's working directory.
func Parse(repoPath string, raw []byte, cfg *config.Config, root string) (*Prompt, error) {
	normPath := NormalizePath(repoPath)

	fm, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", normPath, err)
	}

	var frontmatter Frontmatter
	if err := toml.Unmarshal(fm, &frontmatter); err != nil {
		return nil, fmt.Errorf("%s: failed to parse frontmatter: %w", normPath, err)
	}

	for i, imp := range frontmatter.Imports {
		frontmatter.Imports[i] = NormalizePath(imp)
	}
	for i, out := range frontmatter.Outputs {
		frontmatter.Outputs[i] = NormalizePath(out)
	}

	p := &Prompt{
		Path:        normPath,
		Raw:         raw,
		Frontmatter: frontmatter,
		Body:        body,
	}

	if err := p.resolveOutputs(cfg, root); err != nil {
		return nil, err
	}

	p.collectImportWarnings()

	return p, nil
}

// ParseFile reads a prompt file from disk at absolute path fullPath and
// parses it using its path relative to root.
func ParseFile(fullPath, root string, cfg *config.Config) (*Prompt, error) {
	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", fullPath, err)
	}
	rel, err := filepath.Rel(root, fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compute relative path for %s: %w", fullPath, err)
	}
	return Parse(rel, raw, cfg, root)
}

// splitFrontmatter splits raw prompt bytes on the first two lines equal
// to the literal delimiter "---", returning the frontmatter bytes and
// the body bytes (everything after the second delimiter line).
func splitFrontmatter(raw []byte) (frontmatter, body []byte, err error) {
	lines := strings.Split(string(raw), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != delimiter {
		return nil, nil, fmt.Errorf("missing frontmatter delimiter")
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, nil, fmt.Errorf("unterminated frontmatter (no closing ---)")
	}

	fm := strings.Join(lines[1:end], "\n")
	bodyLines := lines[end+1:]
	bodyText := strings.Join(bodyLines, "\n")
	return []byte(fm), []byte(bodyText), nil
}

// resolveOutputs validates and, for non-manifest modes, synthesizes the
// prompt's declared outputs per its mapping mode.
func (p *Prompt) resolveOutputs(cfg *config.Config, root string) error {
	switch cfg.Project.Mapping {
	case "manifest":
		if len(p.Frontmatter.Outputs) == 0 {
			return fmt.Errorf("%s: manifest mapping requires non-empty outputs", p.Path)
		}
	case "direct":
		ext, ok := languageExtensions[cfg.Language.Default]
		if !ok {
			return fmt.Errorf("%s: unrecognized language %q for direct mapping; no extension table entry", p.Path, cfg.Language.Default)
		}
		synthesized := NormalizePath(strings.TrimSuffix(p.Path, ".prompt.md") + ext)
		if len(p.Frontmatter.Outputs) > 0 {
			if len(p.Frontmatter.Outputs) != 1 || p.Frontmatter.Outputs[0] != synthesized {
				return fmt.Errorf("%s: declared outputs %v do not match synthesized output %q for direct mapping", p.Path, p.Frontmatter.Outputs, synthesized)
			}
		} else {
			p.Frontmatter.Outputs = []string{synthesized}
		}
	case "modular":
		outputs, err := readModuleDescriptor(p.Path, root)
		if err != nil {
			return err
		}
		p.Frontmatter.Outputs = outputs
	case "inferred":
		// Outputs may be empty; final outputs are adopted from the LLM response.
	default:
		return fmt.Errorf("%s: unknown mapping mode %q", p.Path, cfg.Project.Mapping)
	}
	return nil
}

// readModuleDescriptor reads the adjacent "<name>.module.toml" descriptor
// for modular mapping mode and returns its declared output list. The
// descriptor is resolved against root, not the process's working
// directory, since promptPath is repo-relative.
func readModuleDescriptor(promptPath, root string) ([]string, error) {
	dir := filepath.Dir(promptPath)
	base := strings.TrimSuffix(filepath.Base(promptPath), ".prompt.md")
	descPath := filepath.Join(root, dir, base+".module.toml")

	raw, err := os.ReadFile(descPath)
	if err != nil {
		return nil, fmt.Errorf("%s: modular mapping requires a module descriptor at %s: %w", promptPath, descPath, err)
	}
	var descriptor struct {
		Outputs []string `toml:"outputs"`
	}
	if err := toml.Unmarshal(raw, &descriptor); err != nil {
		return nil, fmt.Errorf("%s: failed to parse module descriptor %s: %w", promptPath, descPath, err)
	}
	outputs := make([]string, len(descriptor.Outputs))
	for i, o := range descriptor.Outputs {
		outputs[i] = NormalizePath(o)
	}
	return outputs, nil
}

// collectImportWarnings emits a non-fatal warning for each inline
// @import(...) marker absent from the declared imports; declared imports
// without a marker are allowed.
func (p *Prompt) collectImportWarnings() {
	declared := make(map[string]bool)
	for _, imp := range p.Frontmatter.Imports {
		declared[imp] = true
	}

	seenMarkers := make(map[string]bool)
	matches := importMarker.FindAllStringSubmatch(string(p.Body), -1)
	for _, m := range matches {
		marker := NormalizePath(strings.TrimSpace(m[1]))
		seenMarkers[marker] = true
		if !declared[marker] {
			p.Warnings = append(p.Warnings, fmt.Sprintf("%s: @import(%s) marker not present in declared imports", p.Path, marker))
		}
	}
}

// Discover walks promptsDir and returns all *.prompt.md files, sorted
// lexicographically by path for stable, deterministic ordering.
func Discover(promptsDir string) ([]string, error) {
	var found []string
	err := filepath.Walk(promptsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".prompt.md") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover prompts in %s: %w", promptsDir, err)
	}
	sort.Strings(found)
	return found, nil
}
