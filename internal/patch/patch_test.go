package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApplyCleanMergeDisjointRanges(t *testing.T) {
	baseline := "line1\nline2\nline3\nline4\nline5\n"
	userEdit := "line1\nUSER EDIT\nline3\nline4\nline5\n"
	newOutput := "line1\nline2\nline3\nline4\nLLM CHANGED\n"

	merged, conflicted := Apply([]byte(baseline), []byte(userEdit), []byte(newOutput))
	if conflicted {
		t.Fatal("expected clean merge, got conflict")
	}
	got := string(merged)
	if !strings.Contains(got, "USER EDIT") {
		t.Errorf("expected user hunk preserved, got %q", got)
	}
	if !strings.Contains(got, "LLM CHANGED") {
		t.Errorf("expected llm hunk applied, got %q", got)
	}
}

func TestApplyConflictOverlappingRanges(t *testing.T) {
	baseline := "line1\nline2\nline3\n"
	userEdit := "line1\nUSER VERSION\nline3\n"
	newOutput := "line1\nLLM VERSION\nline3\n"

	merged, conflicted := Apply([]byte(baseline), []byte(userEdit), []byte(newOutput))
	if !conflicted {
		t.Fatal("expected conflict")
	}
	got := string(merged)
	if !strings.Contains(got, "<<<<<<< ours") || !strings.Contains(got, "=======") || !strings.Contains(got, ">>>>>>> theirs") {
		t.Errorf("expected conflict markers, got %q", got)
	}
	if !strings.Contains(got, "USER VERSION") || !strings.Contains(got, "LLM VERSION") {
		t.Errorf("expected both versions present, got %q", got)
	}
}

func TestApplyNoChangesIsIdentity(t *testing.T) {
	baseline := "line1\nline2\nline3\n"
	merged, conflicted := Apply([]byte(baseline), []byte(baseline), []byte(baseline))
	if conflicted {
		t.Fatal("expected no conflict")
	}
	if string(merged) != strings.TrimSuffix(baseline, "\n") {
		t.Errorf("expected identity merge, got %q", string(merged))
	}
}

func TestStoreSaveLoadDrop(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	if s.Has("src/main.py") {
		t.Fatal("expected no patch initially")
	}

	rec, err := s.Save("src/main.py", []byte("old\n"), []byte("new\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Baseline != "old\n" || rec.Edited != "new\n" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if !s.Has("src/main.py") {
		t.Fatal("expected patch to exist after save")
	}

	loaded, err := s.Load("src/main.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Edited != "new\n" {
		t.Errorf("unexpected loaded record: %+v", loaded)
	}

	if _, err := os.Stat(filepath.Join(dir, "src", "main.py.patch")); err != nil {
		t.Errorf("expected patch file on disk: %v", err)
	}

	if err := s.Drop("src/main.py"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Has("src/main.py") {
		t.Fatal("expected patch removed after drop")
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if _, err := s.Save("a.py", []byte("x\n"), []byte("y\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Save("sub/b.py", []byte("x\n"), []byte("y\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paths, err := s.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.py" || paths[1] != "sub/b.py" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestDetect(t *testing.T) {
	if Detect([]byte("same"), []byte("same")) {
		t.Error("expected no divergence for identical bytes")
	}
	if !Detect([]byte("a"), []byte("b")) {
		t.Error("expected divergence for different bytes")
	}
}

func TestUpdateAfterMergeRefreshesBaseline(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	rec, err := s.Save("a.py", []byte("old\n"), []byte("edited\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.updateAfterMerge(rec, []byte("new llm output\n"), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reloaded, err := s.Load("a.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Baseline != "new llm output\n" || !reloaded.Conflicted {
		t.Errorf("unexpected record after update: %+v", reloaded)
	}
}
