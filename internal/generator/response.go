package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clintonboys/lit/internal/prompt"
)

var fileHeader = regexp.MustCompile(`(?m)^=== FILE: (.+?) ===\s*$`)
var fenceLine = regexp.MustCompile("^```[a-zA-Z0-9_+-]*\\s*$")

// ParsedFile is one file section extracted from an LLM response.
type ParsedFile struct {
	Path    string
	Content string
}

// ErrEmptyResponse is returned when the LLM text contains no file
// sections at all.
var ErrEmptyResponse = fmt.Errorf("response contained no file sections")

// ErrOutputMismatch is returned in manifest mode when parsed section
// paths cannot be reconciled with declared outputs.
type ErrOutputMismatch struct {
	Declared []string
	Parsed   []string
}

func (e *ErrOutputMismatch) Error() string {
	return fmt.Sprintf("response sections %v do not match declared outputs %v", e.Parsed, e.Declared)
}

// ParseResponse extracts file sections from raw LLM text and reconciles
// them against p's declared outputs per its mapping mode.
//
// Extraction: partition on "=== FILE: <path> ===" header lines
// (discarding text before the first one), strip one leading/trailing
// fenced-code block per section, normalize paths.
//
// Reconciliation: in manifest mode, an exact path match is accepted; if
// no exact match but the section count equals the declared-output
// count, sections are remapped positionally in declared order with a
// warning. In inferred mode, parsed paths are accepted as-is.
func ParseResponse(raw string, p *prompt.Prompt, mapping string) ([]ParsedFile, []string, error) {
	sections := splitSections(raw)
	if len(sections) == 0 {
		return nil, nil, ErrEmptyResponse
	}

	files := make([]ParsedFile, 0, len(sections))
	for _, s := range sections {
		files = append(files, ParsedFile{
			Path:    prompt.NormalizePath(s.path),
			Content: stripFences(s.content),
		})
	}

	if mapping == "inferred" {
		return files, nil, nil
	}

	return reconcileWithDeclaredOutputs(files, p.Frontmatter.Outputs)
}

type rawSection struct {
	path    string
	content string
}

// splitSections partitions raw on "=== FILE: <path> ===" header lines.
// Text before the first header is discarded.
func splitSections(raw string) []rawSection {
	matches := fileHeader.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	var sections []rawSection
	for i, m := range matches {
		path := raw[m[2]:m[3]]
		contentStart := m[1]
		var contentEnd int
		if i+1 < len(matches) {
			contentEnd = matches[i+1][0]
		} else {
			contentEnd = len(raw)
		}
		content := raw[contentStart:contentEnd]
		content = strings.TrimPrefix(content, "\n")
		sections = append(sections, rawSection{path: strings.TrimSpace(path), content: content})
	}
	return sections
}

// stripFences removes a single leading and trailing triple-backtick
// fence (with optional language tag) from content, preserving any
// internal fences untouched.
func stripFences(content string) string {
	lines := strings.Split(content, "\n")
	// Trim trailing blank lines before checking for a closing fence.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return content
	}

	startsWithFence := fenceLine.MatchString(strings.TrimSpace(lines[0]))
	endsWithFence := len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "```"

	if startsWithFence && endsWithFence {
		lines = lines[1 : len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// reconcileWithDeclaredOutputs implements the manifest-mode mapping
// rules: exact path match wins; otherwise, equal counts remap
// positionally with a warning; otherwise OutputMismatch.
func reconcileWithDeclaredOutputs(files []ParsedFile, declared []string) ([]ParsedFile, []string, error) {
	declaredSet := make(map[string]bool, len(declared))
	for _, d := range declared {
		declaredSet[d] = true
	}

	allExact := len(files) == len(declared)
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if !allExact {
			break
		}
		if !declaredSet[f.Path] || seen[f.Path] {
			allExact = false
		}
		seen[f.Path] = true
	}
	if allExact {
		return files, nil, nil
	}

	if len(files) == len(declared) {
		remapped := make([]ParsedFile, len(files))
		var warnings []string
		for i, f := range files {
			remapped[i] = ParsedFile{Path: declared[i], Content: f.Content}
			if f.Path != declared[i] {
				warnings = append(warnings, fmt.Sprintf("response section %q positionally remapped to declared output %q", f.Path, declared[i]))
			}
		}
		return remapped, warnings, nil
	}

	var parsedPaths []string
	for _, f := range files {
		parsedPaths = append(parsedPaths, f.Path)
	}
	return nil, nil, &ErrOutputMismatch{Declared: declared, Parsed: parsedPaths}
}
