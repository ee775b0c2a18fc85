package record

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clintonboys/lit/internal/config"
)

func writeJunk(dir, name string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte("not json"), 0o644)
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := &Record{
		Timestamp:     "20260806-120000",
		ProjectName:   "demo",
		ModelProvider: "anthropic",
		ModelID:       "claude-sonnet-4-5-20250929",
		Temperature:   0.2,
		Prompts: []PromptRecord{
			{Path: "prompts/a.prompt.md", Outputs: []string{"a.py"}, InputHash: "abc", TokensIn: 100, TokensOut: 200, CostUSD: 0.001},
		},
	}
	r.Summarize()

	path, err := Write(dir, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProjectName != r.ProjectName || got.Summary.PromptCount != 1 {
		t.Errorf("unexpected round trip: %+v", got)
	}
}

func TestWriteNamesFileByTimestamp(t *testing.T) {
	dir := t.TempDir()
	r := &Record{Timestamp: "20260806-120000", ProjectName: "demo"}
	path, err := Write(dir, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "20260806-120000.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}
}

func TestReadRejectsUnsupportedSchema(t *testing.T) {
	dir := t.TempDir()
	r := &Record{SchemaVersion: 99, Timestamp: "20260806-120000"}
	path, err := writeRaw(dir, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Read(path)
	if err == nil {
		t.Fatal("expected unsupported schema error")
	}
	if _, ok := err.(*ErrUnsupportedSchema); !ok {
		t.Fatalf("expected *ErrUnsupportedSchema, got %T", err)
	}
}

func writeRaw(dir string, r *Record) (string, error) {
	return Write(dir, r)
}

func TestListSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	for i, ts := range []string{"20260806-100000", "20260806-110000"} {
		r := &Record{Timestamp: ts, ProjectName: "demo"}
		if _, err := Write(dir, r); err != nil {
			t.Fatalf("unexpected error writing record %d: %v", i, err)
		}
	}
	if err := writeJunk(dir, "20260806-095959.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, warnings, err := List(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 valid records, got %d", len(records))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for the malformed file, got %v", warnings)
	}
}

func TestLatestReturnsMostRecent(t *testing.T) {
	dir := t.TempDir()
	for _, ts := range []string{"20260806-100000", "20260806-120000", "20260806-110000"} {
		r := &Record{Timestamp: ts, ProjectName: "demo"}
		if _, err := Write(dir, r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	latest, err := Latest(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Timestamp != "20260806-120000" {
		t.Errorf("expected the latest-by-filename record, got %s", latest.Timestamp)
	}
}

func TestLatestEmptyDirReturnsNil(t *testing.T) {
	dir := t.TempDir()
	latest, err := Latest(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for empty directory, got %+v", latest)
	}
}

func TestEstimateCostUsesOverrideWhenPresent(t *testing.T) {
	override := &config.PricingConfig{InputPerMillion: 1.0, OutputPerMillion: 2.0}
	cost := EstimateCost("claude-opus-4-6", 1_000_000, 1_000_000, override)
	if cost != 3.0 {
		t.Errorf("expected override pricing to win, got %v", cost)
	}
}

func TestEstimateCostFallsBackToBuiltInTable(t *testing.T) {
	cost := EstimateCost("claude-3-5-sonnet-20241022", 1_000_000, 1_000_000, nil)
	if cost != 18.0 {
		t.Errorf("expected sonnet-tier pricing (3.0 + 15.0), got %v", cost)
	}
}

func TestEstimateCostUnknownModelUsesDefault(t *testing.T) {
	cost := EstimateCost("some-future-model", 1_000_000, 1_000_000, nil)
	if cost != 18.0 {
		t.Errorf("expected default sonnet-tier fallback, got %v", cost)
	}
}

func TestFormatCostScalesPrecision(t *testing.T) {
	cases := map[float64]string{
		0.0001: "$0.0001",
		0.005:  "$0.005",
		1.2345: "$1.23",
	}
	for cost, want := range cases {
		if got := FormatCost(cost); got != want {
			t.Errorf("FormatCost(%v) = %q, want %q", cost, got, want)
		}
	}
}

func TestFormatTokens(t *testing.T) {
	cases := map[uint64]string{
		500:       "500",
		1234:      "1,234",
		1234567:   "1.2M",
	}
	for tokens, want := range cases {
		if got := FormatTokens(tokens); got != want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tokens, got, want)
		}
	}
}
