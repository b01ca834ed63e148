// Package llm provides clients for the AI text services used to run the
// deeper transfer-correction analysis, plus the analyzer that shields the
// rest of the application from their failure modes.
package llm

import (
	"context"

	"github.com/quillon/acatflow/internal/model"
)

// Client defines the interface for LLM providers.
type Client interface {
	Analyze(ctx context.Context, prompt string) (model.Verdict, error)
}

// analyzeOnce issues exactly one request through send and parses the
// verdict. Failures are returned unretried; the analyzer substitutes a
// fallback verdict instead of trying again.
func analyzeOnce(ctx context.Context, send func(context.Context, string) (string, error), prompt string) (model.Verdict, error) {
	content, err := send(ctx, prompt)
	if err != nil {
		return model.Verdict{}, err
	}
	return parseVerdict(content)
}

// Config holds provider selection and connection settings.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}
