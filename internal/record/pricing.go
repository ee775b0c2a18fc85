package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clintonboys/lit/internal/config"
)

// ModelPricing is a dollar-per-million-tokens rate pair.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// defaultPricing is a conservative built-in table, overridable per
// project via [model.pricing] in lit.toml. Unknown models fall back to
// Sonnet-tier pricing as a reasonable default.
var defaultPricing = []struct {
	contains []string
	excludes []string
	pricing  ModelPricing
}{
	{contains: []string{"claude-opus-4-5"}, pricing: ModelPricing{5.0, 25.0}},
	{contains: []string{"claude-opus-4-6"}, pricing: ModelPricing{5.0, 25.0}},
	{contains: []string{"claude-3-opus"}, pricing: ModelPricing{15.0, 75.0}},
	{contains: []string{"claude-opus-4"}, pricing: ModelPricing{15.0, 75.0}},
	{contains: []string{"claude-3-5-sonnet"}, pricing: ModelPricing{3.0, 15.0}},
	{contains: []string{"claude-sonnet-4"}, pricing: ModelPricing{3.0, 15.0}},
	{contains: []string{"claude-haiku-4-5"}, pricing: ModelPricing{1.0, 5.0}},
	{contains: []string{"claude-3-5-haiku"}, pricing: ModelPricing{0.80, 4.0}},
	{contains: []string{"claude-haiku-4"}, pricing: ModelPricing{0.80, 4.0}},
	{contains: []string{"claude-3-haiku"}, pricing: ModelPricing{0.25, 1.25}},
	{contains: []string{"gpt-4o-mini"}, pricing: ModelPricing{0.15, 0.60}},
	{contains: []string{"gpt-4o"}, excludes: []string{"mini"}, pricing: ModelPricing{2.50, 10.0}},
	{contains: []string{"gpt-4"}, excludes: []string{"gpt-4o"}, pricing: ModelPricing{30.0, 60.0}},
}

var unknownModelPricing = ModelPricing{InputPerMillion: 3.0, OutputPerMillion: 15.0}

// GetModelPricing looks up the built-in rate for model by substring
// match, falling back to Sonnet-tier pricing for unrecognized models.
func GetModelPricing(model string) ModelPricing {
	for _, row := range defaultPricing {
		matched := true
		for _, c := range row.contains {
			if !strings.Contains(model, c) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		for _, e := range row.excludes {
			if strings.Contains(model, e) {
				matched = false
				break
			}
		}
		if matched {
			return row.pricing
		}
	}
	return unknownModelPricing
}

// EstimateCost computes the USD cost of a generation from token counts,
// using override if non-nil (sourced from lit.toml's [model.pricing]),
// otherwise the built-in table for model.
func EstimateCost(model string, tokensIn, tokensOut uint64, override *config.PricingConfig) float64 {
	pricing := GetModelPricing(model)
	if override != nil {
		pricing = ModelPricing{InputPerMillion: override.InputPerMillion, OutputPerMillion: override.OutputPerMillion}
	}
	inputCost := float64(tokensIn) / 1_000_000.0 * pricing.InputPerMillion
	outputCost := float64(tokensOut) / 1_000_000.0 * pricing.OutputPerMillion
	return inputCost + outputCost
}

// FormatCost renders a USD amount at a precision scaled to its
// magnitude, so very small per-prompt costs don't round to "$0.00".
func FormatCost(costUSD float64) string {
	switch {
	case costUSD < 0.001:
		return fmt.Sprintf("$%.4f", costUSD)
	case costUSD < 0.01:
		return fmt.Sprintf("$%.3f", costUSD)
	default:
		return fmt.Sprintf("$%.2f", costUSD)
	}
}

// FormatTokens renders a token count with comma separators, or an "M"
// suffix above one million.
func FormatTokens(tokens uint64) string {
	if tokens >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000.0)
	}
	if tokens < 1_000 {
		return strconv.FormatUint(tokens, 10)
	}
	s := strconv.FormatUint(tokens, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
