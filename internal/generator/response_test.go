package generator

import (
	"testing"

	"github.com/clintonboys/lit/internal/prompt"
)

func TestParseResponseExactMatch(t *testing.T) {
	raw := "=== FILE: a.py ===\nprint(1)\n=== FILE: b.py ===\nprint(2)\n"
	p := &prompt.Prompt{Frontmatter: prompt.Frontmatter{Outputs: []string{"a.py", "b.py"}}}

	files, warnings, err := ParseResponse(raw, p, "manifest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if len(files) != 2 || files[0].Path != "a.py" || files[1].Path != "b.py" {
		t.Fatalf("unexpected files: %+v", files)
	}
	if files[0].Content != "print(1)" {
		t.Errorf("unexpected content %q", files[0].Content)
	}
}

func TestParseResponsePositionalRemap(t *testing.T) {
	raw := "=== FILE: foo/a.py ===\nprint(1)\n=== FILE: bar/b.py ===\nprint(2)\n"
	p := &prompt.Prompt{Frontmatter: prompt.Frontmatter{Outputs: []string{"a.py", "b.py"}}}

	files, warnings, err := ParseResponse(raw, p, "manifest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if files[0].Path != "a.py" || files[1].Path != "b.py" {
		t.Fatalf("expected positional remap, got %+v", files)
	}
}

func TestParseResponseOutputMismatch(t *testing.T) {
	raw := "=== FILE: a.py ===\nprint(1)\n"
	p := &prompt.Prompt{Frontmatter: prompt.Frontmatter{Outputs: []string{"a.py", "b.py"}}}

	_, _, err := ParseResponse(raw, p, "manifest")
	if err == nil {
		t.Fatal("expected output mismatch error")
	}
	if _, ok := err.(*ErrOutputMismatch); !ok {
		t.Fatalf("expected *ErrOutputMismatch, got %T", err)
	}
}

func TestParseResponseEmptyResponse(t *testing.T) {
	p := &prompt.Prompt{Frontmatter: prompt.Frontmatter{Outputs: []string{"a.py"}}}
	_, _, err := ParseResponse("no file sections here", p, "manifest")
	if err != ErrEmptyResponse {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestParseResponseInferredModeAcceptsAnyPaths(t *testing.T) {
	raw := "=== FILE: wherever/thing.py ===\nprint(1)\n"
	p := &prompt.Prompt{Frontmatter: prompt.Frontmatter{Outputs: nil}}

	files, _, err := ParseResponse(raw, p, "inferred")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].Path != "wherever/thing.py" {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestStripDecorativeFences(t *testing.T) {
	raw := "=== FILE: a.py ===\n```python\nprint(1)\n```\n"
	p := &prompt.Prompt{Frontmatter: prompt.Frontmatter{Outputs: []string{"a.py"}}}

	files, _, err := ParseResponse(raw, p, "manifest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if files[0].Content != "print(1)" {
		t.Errorf("expected fences stripped, got %q", files[0].Content)
	}
}

func TestInternalFencesPreserved(t *testing.T) {
	raw := "=== FILE: a.md ===\nSee example:\n```python\nprint(1)\n```\nDone.\n"
	p := &prompt.Prompt{Frontmatter: prompt.Frontmatter{Outputs: []string{"a.md"}}}

	files, _, err := ParseResponse(raw, p, "manifest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "See example:\n```python\nprint(1)\n```\nDone."
	if files[0].Content != want {
		t.Errorf("expected internal fences preserved, got %q", files[0].Content)
	}
}

func TestTextBeforeFirstDelimiterDiscarded(t *testing.T) {
	raw := "Here is the code:\n=== FILE: a.py ===\nprint(1)\n"
	p := &prompt.Prompt{Frontmatter: prompt.Frontmatter{Outputs: []string{"a.py"}}}

	files, _, err := ParseResponse(raw, p, "manifest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if files[0].Content != "print(1)" {
		t.Errorf("unexpected content %q", files[0].Content)
	}
}
