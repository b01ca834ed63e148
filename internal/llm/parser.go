package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quillon/acatflow/internal/common"
	"github.com/quillon/acatflow/internal/model"
)

// cleanMarkdownWrapper strips code fences that models sometimes wrap around
// JSON output.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// extractJSON returns the first top-level JSON object in content, tolerating
// prose before and after it.
func extractJSON(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return content[start : end+1], true
}

// parseVerdict extracts a structured verdict from a raw model response.
func parseVerdict(content string) (model.Verdict, error) {
	cleaned := cleanMarkdownWrapper(content)

	jsonStr, ok := extractJSON(cleaned)
	if !ok {
		return model.Verdict{}, fmt.Errorf("%w: no JSON object in response", common.ErrMalformedVerdict)
	}

	var wire struct {
		Analysis           string   `json:"ai_analysis"`
		Warnings           []string `json:"warnings"`
		Suggestions        []struct {
			Field          string  `json:"field"`
			CurrentValue   string  `json:"current_value"`
			SuggestedValue string  `json:"suggested_value"`
			Reason         string  `json:"reason"`
			Confidence     float64 `json:"confidence"`
			Severity       string  `json:"severity"`
		} `json:"suggestions"`
		SuccessProbability float64 `json:"success_probability"`
		IsValid            bool    `json:"is_valid"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return model.Verdict{}, fmt.Errorf("%w: %v", common.ErrMalformedVerdict, err)
	}

	verdict := model.Verdict{
		IsValid:            wire.IsValid,
		Warnings:           wire.Warnings,
		SuccessProbability: clamp01(wire.SuccessProbability),
		Analysis:           wire.Analysis,
	}

	for _, s := range wire.Suggestions {
		verdict.Suggestions = append(verdict.Suggestions, model.CorrectionSuggestion{
			Field:          s.Field,
			CurrentValue:   s.CurrentValue,
			SuggestedValue: s.SuggestedValue,
			Reason:         s.Reason,
			Confidence:     clamp01(s.Confidence),
			Severity:       normalizeSeverity(s.Severity),
		})
	}

	return verdict, nil
}

func normalizeSeverity(s string) model.Severity {
	switch model.Severity(strings.ToLower(s)) {
	case model.SeverityHigh:
		return model.SeverityHigh
	case model.SeverityMedium:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
