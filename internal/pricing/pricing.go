package pricing

import (
	"fmt"
	"os"
	"strings"

	"github.com/signalnine/driftbench/internal/result"
	"gopkg.in/yaml.v3"
)

// ModelPricing holds USD prices per 1K tokens.
type ModelPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

type Table struct {
	Models map[string]ModelPricing
}

// Default covers the models that commonly show up in traces. Unknown models
// cost 0 so aggregation stays total without a pricing file.
func Default() *Table {
	return &Table{Models: map[string]ModelPricing{
		"claude-sonnet-4-20250514":  {Input: 0.003, Output: 0.015},
		"claude-3-5-haiku-20241022": {Input: 0.0008, Output: 0.004},
		"claude-opus-4-20250514":    {Input: 0.015, Output: 0.075},
		"gpt-4o":                    {Input: 0.0025, Output: 0.01},
		"gpt-4o-mini":               {Input: 0.00015, Output: 0.0006},
		"gemini-2.0-flash":          {Input: 0.0001, Output: 0.0004},
	}}
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pricing file: %w", err)
	}
	var models map[string]ModelPricing
	if err := yaml.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("parsing pricing file: %w", err)
	}
	return &Table{Models: models}, nil
}

// Cost calculates USD cost for one run's token usage. Prices are per 1K
// tokens; prefix matching lets a table entry like "gpt-4o" cover dated
// snapshots of the same model.
func (t *Table) Cost(model string, usage result.TokenUsage) float64 {
	if t == nil || t.Models == nil {
		return 0
	}
	p, ok := t.Models[model]
	if !ok {
		// Longest matching prefix wins so "gpt-4o-mini" beats "gpt-4o" for
		// dated mini snapshots.
		best := -1
		for name, mp := range t.Models {
			if strings.HasPrefix(model, name) && len(name) > best {
				p, ok, best = mp, true, len(name)
			}
		}
	}
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1000*p.Input + float64(usage.OutputTokens)/1000*p.Output
}
