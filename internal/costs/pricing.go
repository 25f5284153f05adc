package costs

import "strings"

const perMillion = 1_000_000.0

type rate struct {
	match  string
	input  float64
	output float64
}

// Per-million-token list prices. More specific names come first.
var rates = map[string][]rate{
	"anthropic": {
		{"haiku", 0.80, 4.00},
		{"sonnet", 3.00, 15.00},
		{"opus", 15.00, 75.00},
	},
	"openai": {
		{"gpt-4o-mini", 0.15, 0.60},
		{"gpt-4o", 2.50, 10.00},
		{"gpt-4-turbo", 10.00, 30.00},
		{"gpt-3.5-turbo", 0.50, 1.50},
	},
	"gemini": {
		{"gemini-1.5-flash", 0.075, 0.30},
		{"gemini-1.5-pro", 1.25, 5.00},
	},
}

// EstimateUSD returns an estimated USD cost for one request.
// Returns ok=false when no list price is known for the format and model.
func EstimateUSD(format, model string, inputTokens, outputTokens int) (usd float64, ok bool) {
	modelName := strings.ToLower(strings.TrimSpace(model))
	for _, r := range rates[strings.ToLower(strings.TrimSpace(format))] {
		if !strings.Contains(modelName, r.match) {
			continue
		}
		inputCost := (float64(inputTokens) / perMillion) * r.input
		outputCost := (float64(outputTokens) / perMillion) * r.output
		return inputCost + outputCost, true
	}
	return 0, false
}
