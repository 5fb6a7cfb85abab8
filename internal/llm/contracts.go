package llm

import (
	"context"
	"encoding/json"
)

// GenerateParams are the decoding settings passed to the inference runtime.
type GenerateParams struct {
	MaxTokens   int
	Temperature float64
	// JSONMode biases decoding toward syntactically valid JSON.
	JSONMode bool
	// Stop sequences; empty on purpose for invoice extraction since a stop
	// on "```" or "}" truncates nested objects.
	Stop []string
}

// DefaultParams returns the settings tuned for structured invoice extraction.
func DefaultParams() GenerateParams {
	return GenerateParams{
		MaxTokens:   2048,
		Temperature: 0.3,
		JSONMode:    true,
	}
}

// Generator completes a prompt. Implementations need not be safe for
// concurrent use; Model serializes calls.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
}

// Loader initializes a Generator. It is called lazily by Model and may be slow.
type Loader func(ctx context.Context) (Generator, error)

// InvoiceExtractor is the structured extraction stage our pipeline depends on.
type InvoiceExtractor interface {
	ExtractInvoiceData(ctx context.Context, text string) (json.RawMessage, error)
}
