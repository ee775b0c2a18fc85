package config

import (
	"os"
	"testing"
)

const validConfig = `
[project]
name = "test-app"
version = "0.1.0"
mapping = "manifest"

[language]
default = "python"
version = "3.12"

[framework]
name = "fastapi"
version = "0.100"

[model]
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"
temperature = 0.0
seed = 42

[model.api]
key_env = "LIT_API_KEY"
`

func TestFromBytesValid(t *testing.T) {
	cfg, err := FromBytes([]byte(validConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Project.Name != "test-app" {
		t.Errorf("expected name test-app, got %q", cfg.Project.Name)
	}
	if cfg.Project.Mapping != "manifest" {
		t.Errorf("expected mapping manifest, got %q", cfg.Project.Mapping)
	}
	if cfg.Model.Seed == nil || *cfg.Model.Seed != 42 {
		t.Errorf("expected seed 42, got %v", cfg.Model.Seed)
	}
	if cfg.FrameworkName() != "fastapi" {
		t.Errorf("expected framework fastapi, got %q", cfg.FrameworkName())
	}
}

func TestFromBytesWithoutFramework(t *testing.T) {
	toml := `
[project]
name = "test"
version = "0.1.0"
mapping = "direct"

[language]
default = "rust"
version = "1.75"

[model]
provider = "openai"
model = "gpt-4"
temperature = 0.5
`
	cfg, err := FromBytes([]byte(toml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Framework != nil {
		t.Errorf("expected no framework, got %+v", cfg.Framework)
	}
	if cfg.Model.Seed != nil {
		t.Errorf("expected no seed, got %v", cfg.Model.Seed)
	}
}

func TestInvalidMappingMode(t *testing.T) {
	toml := `
[project]
name = "test"
version = "0.1.0"
mapping = "invalid_mode"

[language]
default = "python"
version = "3.12"

[model]
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"
temperature = 0.0
`
	_, err := FromBytes([]byte(toml))
	if err == nil {
		t.Fatal("expected error for invalid mapping mode")
	}
}

func TestInvalidTemperature(t *testing.T) {
	toml := `
[project]
name = "test"
version = "0.1.0"
mapping = "manifest"

[language]
default = "python"
version = "3.12"

[model]
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"
temperature = 3.0
`
	_, err := FromBytes([]byte(toml))
	if err == nil {
		t.Fatal("expected error for invalid temperature")
	}
}

func TestInvalidProvider(t *testing.T) {
	toml := `
[project]
name = "test"
version = "0.1.0"
mapping = "manifest"

[language]
default = "python"
version = "3.12"

[model]
provider = "google"
model = "gemini"
temperature = 0.0
`
	_, err := FromBytes([]byte(toml))
	if err == nil {
		t.Fatal("expected error for invalid provider")
	}
}

func TestStaticFilesParsing(t *testing.T) {
	toml := `
[project]
name = "test"
version = "0.1.0"
mapping = "manifest"

[language]
default = "python"
version = "3.12"

[model]
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"
temperature = 0.0

[[static]]
path = "src/__init__.py"

[[static]]
path = "src/config/__init__.py"
content = "# Config package"
`
	cfg, err := FromBytes([]byte(toml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Static) != 2 {
		t.Fatalf("expected 2 static files, got %d", len(cfg.Static))
	}
	if cfg.Static[0].Content != "" {
		t.Errorf("expected empty content, got %q", cfg.Static[0].Content)
	}
	if cfg.Static[1].Content != "# Config package" {
		t.Errorf("unexpected content %q", cfg.Static[1].Content)
	}
}

func TestPricingOverride(t *testing.T) {
	toml := `
[project]
name = "test"
version = "0.1.0"
mapping = "manifest"

[language]
default = "python"
version = "3.12"

[model]
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"
temperature = 0.0

[model.pricing]
input_per_million = 5.0
output_per_million = 25.0
`
	cfg, err := FromBytes([]byte(toml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model.Pricing == nil {
		t.Fatal("expected pricing override")
	}
	if cfg.Model.Pricing.InputPerMillion != 5.0 || cfg.Model.Pricing.OutputPerMillion != 25.0 {
		t.Errorf("unexpected pricing %+v", cfg.Model.Pricing)
	}
}

func TestResolveAPIKey(t *testing.T) {
	cfg, err := FromBytes([]byte(validConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	os.Setenv("LIT_API_KEY", "test-key-123")
	defer os.Unsetenv("LIT_API_KEY")

	key, err := cfg.ResolveAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-key-123" {
		t.Errorf("expected test-key-123, got %q", key)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	cfg, err := FromBytes([]byte(validConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	os.Unsetenv("LIT_API_KEY")

	_, err = cfg.ResolveAPIKey()
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestFindAndLoadMissing(t *testing.T) {
	dir := t.TempDir()
	_, _, err := FindAndLoad(dir)
	if err == nil {
		t.Fatal("expected error when lit.toml is absent")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/lit.toml", []byte(validConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	sub := dir + "/sub/dir"
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	cfg, root, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root != dir {
		t.Errorf("expected root %q, got %q", dir, root)
	}
	if cfg.Project.Name != "test-app" {
		t.Errorf("unexpected project name %q", cfg.Project.Name)
	}
}
