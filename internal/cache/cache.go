// Package cache implements the content-addressed input-hash cache: a
// stable cascading digest over a prompt's effective generation inputs,
// and a store of generation artifacts keyed by that digest.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/prompt"
)

const hashVersionTag = "lit-cache-v1\n"

// Artifact is the cached result of one prompt's generation: its
// produced files plus token/timing metadata.
type Artifact struct {
	Files      map[string][]byte `json:"files"`
	TokensIn   uint64            `json:"tokens_in"`
	TokensOut  uint64            `json:"tokens_out"`
	Model      string            `json:"model"`
	DurationMs uint64            `json:"duration_ms"`
}

// artifactOnDisk mirrors Artifact but stores file bytes as strings,
// since generated source is always valid UTF-8 text.
type artifactOnDisk struct {
	Files      map[string]string `json:"files"`
	TokensIn   uint64            `json:"tokens_in"`
	TokensOut  uint64            `json:"tokens_out"`
	Model      string            `json:"model"`
	DurationMs uint64            `json:"duration_ms"`
}

// Cache is a content-addressed store of generation artifacts, rooted at
// a (typically gitignored) directory.
type Cache struct {
	dir string
}

// New returns a Cache rooted at dir. Call Init before first use.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Init ensures the cache directory exists.
func (c *Cache) Init() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", c.dir, err)
	}
	return nil
}

func (c *Cache) pathFor(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}

// Get returns the stored artifact for hash, or (nil, false) if absent
// or unreadable. A corrupt cache entry is demoted to a miss with a
// warning; it is never fatal.
func (c *Cache) Get(hash string) (*Artifact, bool, string) {
	raw, err := os.ReadFile(c.pathFor(hash))
	if err != nil {
		return nil, false, ""
	}
	var onDisk artifactOnDisk
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		return nil, false, fmt.Sprintf("corrupt cache entry %s: %v (treating as miss)", hash, err)
	}
	files := make(map[string][]byte, len(onDisk.Files))
	for path, content := range onDisk.Files {
		files[path] = []byte(content)
	}
	return &Artifact{
		Files:      files,
		TokensIn:   onDisk.TokensIn,
		TokensOut:  onDisk.TokensOut,
		Model:      onDisk.Model,
		DurationMs: onDisk.DurationMs,
	}, true, ""
}

// Put stores artifact under hash. Writes are idempotent since the key
// is content-addressed: a second writer of the same bytes overwrites
// with identical content.
func (c *Cache) Put(hash string, artifact *Artifact) error {
	files := make(map[string]string, len(artifact.Files))
	for path, content := range artifact.Files {
		files[path] = string(content)
	}
	onDisk := artifactOnDisk{
		Files:      files,
		TokensIn:   artifact.TokensIn,
		TokensOut:  artifact.TokensOut,
		Model:      artifact.Model,
		DurationMs: artifact.DurationMs,
	}
	raw, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache artifact: %w", err)
	}
	if err := os.WriteFile(c.pathFor(hash), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", hash, err)
	}
	return nil
}

// Remove deletes the cache entry for hash, if present.
func (c *Cache) Remove(hash string) error {
	err := os.Remove(c.pathFor(hash))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache entry %s: %w", hash, err)
	}
	return nil
}

// Clear removes every entry in the cache directory.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory %s: %w", c.dir, err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove cache entry %s: %w", e.Name(), err)
		}
	}
	return nil
}

// ImportHash is one (path, hash) pair contributing to a cascading hash.
type ImportHash struct {
	Path string
	Hash string
}

// ComputeInputHash computes the stable cascading digest for p: a
// version tag, the prompt's raw bytes, the sorted (import path, import
// hash) pairs, the effective model config, and the project
// language/framework strings. Changing any byte of p or any upstream
// hash changes the result; changing nothing preserves it bit-for-bit.
func ComputeInputHash(p *prompt.Prompt, importHashes []ImportHash, model config.ModelConfig, language, framework string) string {
	h := sha256.New()
	h.Write([]byte(hashVersionTag))
	h.Write(p.Raw)

	sorted := append([]ImportHash(nil), importHashes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h.Write([]byte("---imports---\n"))
	for _, ih := range sorted {
		h.Write([]byte(ih.Path))
		h.Write([]byte("\x00"))
		h.Write([]byte(ih.Hash))
		h.Write([]byte("\n"))
	}

	h.Write([]byte("---model---\n"))
	seed := "<nil>"
	if model.Seed != nil {
		seed = fmt.Sprint(*model.Seed)
	}
	fmt.Fprintf(h, "%s\x00%s\x00%v\x00%s\n", model.Provider, model.Model, model.Temperature, seed)

	h.Write([]byte("---lang---\n"))
	fmt.Fprintf(h, "%s\x00%s\n", language, framework)

	return hex.EncodeToString(h.Sum(nil))
}
