package model

// Severity ranks how badly an issue hurts the odds of a clean transfer.
type Severity string

// Severity constants.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CorrectionSuggestion proposes a fix for a single field. Suggestions are
// immutable once produced.
type CorrectionSuggestion struct {
	Field          string   `json:"field"`
	CurrentValue   string   `json:"current_value"`
	SuggestedValue string   `json:"suggested_value"`
	Reason         string   `json:"reason"`
	Confidence     float64  `json:"confidence"`
	Severity       Severity `json:"severity"`
}

// Verdict is the outcome of validating a transfer request. Suggestions are
// ordered by detection; a record is valid iff no suggestions were emitted
// (warnings alone do not invalidate).
type Verdict struct {
	IsValid            bool                   `json:"is_valid"`
	Suggestions        []CorrectionSuggestion `json:"suggestions"`
	Warnings           []string               `json:"warnings"`
	SuccessProbability float64                `json:"success_probability"`
	Analysis           string                 `json:"ai_analysis"`
}
