package pricing_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/signalnine/driftbench/internal/pricing"
	"github.com/signalnine/driftbench/internal/result"
)

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestCostExactMatch(t *testing.T) {
	table := pricing.Default()
	usage := result.TokenUsage{InputTokens: 1000, OutputTokens: 1000}
	got := table.Cost("gpt-4o-mini", usage)
	want := 0.00015 + 0.0006
	if absf(got-want) > 1e-9 {
		t.Errorf("got %f, want %f", got, want)
	}
}

func TestCostPrefixMatch(t *testing.T) {
	table := pricing.Default()
	usage := result.TokenUsage{InputTokens: 2000, OutputTokens: 500}
	got := table.Cost("gemini-2.0-flash-exp", usage)
	want := 2*0.0001 + 0.5*0.0004
	if absf(got-want) > 1e-9 {
		t.Errorf("got %f, want %f", got, want)
	}
}

func TestCostUnknownModel(t *testing.T) {
	if got := pricing.Default().Cost("mystery-model", result.TokenUsage{InputTokens: 1000}); got != 0 {
		t.Errorf("got %f, want 0 for unknown model", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := `
my-model:
  input: 0.002
  output: 0.008
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := pricing.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got := table.Cost("my-model", result.TokenUsage{InputTokens: 500, OutputTokens: 250})
	want := 0.5*0.002 + 0.25*0.008
	if absf(got-want) > 1e-9 {
		t.Errorf("got %f, want %f", got, want)
	}
}
