package cache

import (
	"path/filepath"
	"testing"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/prompt"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := New(filepath.Join(t.TempDir(), "cache"))
	if err := c.Init(); err != nil {
		t.Fatalf("failed to init cache: %v", err)
	}
	return c
}

func TestPutGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	artifact := &Artifact{
		Files:     map[string][]byte{"a.py": []byte("print(1)\n")},
		TokensIn:  10,
		TokensOut: 20,
		Model:     "claude-sonnet-4-5",
	}
	if err := c.Put("deadbeef", artifact); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, ok, warn := c.Get("deadbeef")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if warn != "" {
		t.Errorf("unexpected warning: %s", warn)
	}
	if string(got.Files["a.py"]) != "print(1)\n" {
		t.Errorf("unexpected file content: %q", got.Files["a.py"])
	}
	if got.TokensIn != 10 || got.TokensOut != 20 {
		t.Errorf("unexpected token counts: %+v", got)
	}
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)
	_, ok, warn := c.Get("nonexistent")
	if ok {
		t.Fatal("expected miss")
	}
	if warn != "" {
		t.Errorf("expected no warning on plain miss, got %q", warn)
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := newTestCache(t)
	c.Put("h1", &Artifact{Files: map[string][]byte{"a.py": []byte("x")}})
	c.Put("h2", &Artifact{Files: map[string][]byte{"b.py": []byte("y")}})

	if err := c.Remove("h1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := c.Get("h1"); ok {
		t.Fatal("expected h1 to be removed")
	}
	if _, ok, _ := c.Get("h2"); !ok {
		t.Fatal("expected h2 to remain")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok, _ := c.Get("h2"); ok {
		t.Fatal("expected h2 to be cleared")
	}
}

func TestComputeInputHashChangesOnPromptByteChange(t *testing.T) {
	model := config.ModelConfig{Provider: "anthropic", Model: "claude-sonnet-4-5", Temperature: 0.0}
	p1 := &prompt.Prompt{Path: "a.prompt.md", Raw: []byte("body one")}
	p2 := &prompt.Prompt{Path: "a.prompt.md", Raw: []byte("body two")}

	h1 := ComputeInputHash(p1, nil, model, "python", "")
	h2 := ComputeInputHash(p2, nil, model, "python", "")
	if h1 == h2 {
		t.Fatal("expected hash to change when prompt bytes change")
	}
}

func TestComputeInputHashStableOverIdenticalInputs(t *testing.T) {
	model := config.ModelConfig{Provider: "anthropic", Model: "claude-sonnet-4-5", Temperature: 0.0}
	p := &prompt.Prompt{Path: "a.prompt.md", Raw: []byte("body")}
	imports := []ImportHash{{Path: "b.prompt.md", Hash: "abc123"}}

	h1 := ComputeInputHash(p, imports, model, "python", "")
	h2 := ComputeInputHash(p, imports, model, "python", "")
	if h1 != h2 {
		t.Fatal("expected identical inputs to produce identical hashes")
	}
}

func TestComputeInputHashCascadesFromImport(t *testing.T) {
	model := config.ModelConfig{Provider: "anthropic", Model: "claude-sonnet-4-5", Temperature: 0.0}
	p := &prompt.Prompt{Path: "b.prompt.md", Raw: []byte("body")}

	h1 := ComputeInputHash(p, []ImportHash{{Path: "a.prompt.md", Hash: "hash1"}}, model, "python", "")
	h2 := ComputeInputHash(p, []ImportHash{{Path: "a.prompt.md", Hash: "hash2"}}, model, "python", "")
	if h1 == h2 {
		t.Fatal("expected upstream hash change to cascade downstream")
	}
}

func TestComputeInputHashIndependentOfImportOrder(t *testing.T) {
	model := config.ModelConfig{Provider: "anthropic", Model: "claude-sonnet-4-5", Temperature: 0.0}
	p := &prompt.Prompt{Path: "c.prompt.md", Raw: []byte("body")}

	imports1 := []ImportHash{{Path: "a.prompt.md", Hash: "h1"}, {Path: "b.prompt.md", Hash: "h2"}}
	imports2 := []ImportHash{{Path: "b.prompt.md", Hash: "h2"}, {Path: "a.prompt.md", Hash: "h1"}}

	h1 := ComputeInputHash(p, imports1, model, "python", "")
	h2 := ComputeInputHash(p, imports2, model, "python", "")
	if h1 != h2 {
		t.Fatal("expected hash to be independent of import slice order")
	}
}

func TestComputeInputHashChangesOnModelChange(t *testing.T) {
	p := &prompt.Prompt{Path: "a.prompt.md", Raw: []byte("body")}
	m1 := config.ModelConfig{Provider: "anthropic", Model: "claude-sonnet-4-5", Temperature: 0.0}
	m2 := config.ModelConfig{Provider: "anthropic", Model: "claude-sonnet-4-5", Temperature: 0.7}

	h1 := ComputeInputHash(p, nil, m1, "python", "")
	h2 := ComputeInputHash(p, nil, m2, "python", "")
	if h1 == h2 {
		t.Fatal("expected hash to change when temperature changes")
	}
}
