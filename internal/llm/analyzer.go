package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/quillon/acatflow/internal/model"
)

// Analyzer turns transfer records into analysis prompts and shields callers
// from provider failures. Any failure (network, timeout, unparseable
// content) is converted into a degraded fallback verdict; Analyze never
// returns an error.
type Analyzer struct {
	client Client
}

// NewAnalyzer creates an analyzer backed by the given client.
func NewAnalyzer(client Client) *Analyzer {
	return &Analyzer{client: client}
}

// AnalyzeTransfer runs the deeper AI analysis for a record that already
// passed rule-based validation. Single attempt, no retries: the rule
// verdict is a perfectly good answer if the AI is unavailable.
func (a *Analyzer) AnalyzeTransfer(ctx context.Context, rec model.TransferRecord) model.Verdict {
	prompt, err := buildAnalysisPrompt(rec)
	if err == nil {
		var verdict model.Verdict
		verdict, err = a.client.Analyze(ctx, prompt)
		if err == nil {
			return verdict
		}
	}

	slog.Warn("AI analysis failed, substituting fallback verdict", "error", err)
	return FallbackVerdict(err)
}

// FallbackVerdict is the degraded verdict used when the AI service fails:
// invalid, no suggestions, one warning describing the failure, probability
// zero.
func FallbackVerdict(err error) model.Verdict {
	return model.Verdict{
		IsValid:            false,
		Warnings:           []string{fmt.Sprintf("AI analysis failed: %v", err)},
		SuccessProbability: 0.0,
		Analysis:           fmt.Sprintf("Error analyzing transfer data: %v", err),
	}
}

// buildAnalysisPrompt renders the record and response contract into a
// single user prompt.
func buildAnalysisPrompt(rec model.TransferRecord) (string, error) {
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transfer record: %w", err)
	}

	return fmt.Sprintf(`Analyze the following ACATS account transfer request and identify potential issues that could lead to rejection.

Transfer data:
%s

Common ACATS rejection reasons include:
- Invalid CUSIP codes
- Incorrect contra firm participant numbers
- Mismatched or malformed account numbers
- Invalid transfer types
- Missing required fields
- Format errors in customer information
- Invalid security quantities
- Account type mismatches

For each suggestion provide: field, current_value, suggested_value, reason, confidence (0.0-1.0), severity (low|medium|high).

Respond in JSON format:
{
    "is_valid": boolean,
    "suggestions": [
        {
            "field": "string",
            "current_value": "string",
            "suggested_value": "string",
            "reason": "string",
            "confidence": 0.0,
            "severity": "low|medium|high"
        }
    ],
    "warnings": ["string"],
    "success_probability": 0.0,
    "ai_analysis": "string"
}`, payload), nil
}
