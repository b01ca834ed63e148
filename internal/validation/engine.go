// Package validation implements the deterministic rule-based checks that run
// on every transfer request before any AI escalation.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quillon/acatflow/internal/model"
)

var (
	ssnPattern   = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	nonDigits    = regexp.MustCompile(`\D`)
	alnumPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// Evaluate runs the rule-based checks against a transfer request and returns
// a fresh verdict. It is pure: no I/O, no shared state, deterministic for a
// given input. Suggestion order follows check order: contra firm, securities
// in input order, delivering account, receiving account, customer SSN.
func Evaluate(rec model.TransferRecord) model.Verdict {
	var suggestions []model.CorrectionSuggestion
	var warnings []string

	if !KnownContraFirm(rec.ContraFirm) {
		suggestions = append(suggestions, model.CorrectionSuggestion{
			Field:          "contra_firm",
			CurrentValue:   rec.ContraFirm,
			SuggestedValue: DefaultContraFirm,
			Reason:         "Contra firm not recognized in common DTCC participants",
			Confidence:     0.7,
			Severity:       model.SeverityMedium,
		})
		warnings = append(warnings, fmt.Sprintf("Contra firm %s not in common participants list", rec.ContraFirm))
	}

	for i, sec := range rec.Securities {
		if validCUSIP(sec.CUSIP) {
			continue
		}
		suggestions = append(suggestions, model.CorrectionSuggestion{
			Field:          fmt.Sprintf("securities[%d].cusip", i),
			CurrentValue:   sec.CUSIP,
			SuggestedValue: correctCUSIP(sec.CUSIP),
			Reason:         "CUSIP format appears invalid",
			Confidence:     0.8,
			Severity:       model.SeverityHigh,
		})
		warnings = append(warnings, fmt.Sprintf("Invalid CUSIP format: %s", sec.CUSIP))
	}

	if !validAccountNumber(rec.DeliveringAccount) {
		suggestions = append(suggestions, accountSuggestion("delivering_account", rec.DeliveringAccount))
	}
	if !validAccountNumber(rec.ReceivingAccount) {
		suggestions = append(suggestions, accountSuggestion("receiving_account", rec.ReceivingAccount))
	}

	if rec.Customer.SSN != "" && !ssnPattern.MatchString(rec.Customer.SSN) {
		suggestions = append(suggestions, model.CorrectionSuggestion{
			Field:          "customer.ssn",
			CurrentValue:   rec.Customer.SSN,
			SuggestedValue: formatSSN(rec.Customer.SSN),
			Reason:         "SSN format should be XXX-XX-XXXX",
			Confidence:     0.95,
			Severity:       model.SeverityMedium,
		})
	}

	return model.Verdict{
		IsValid:            len(suggestions) == 0,
		Suggestions:        suggestions,
		Warnings:           warnings,
		SuccessProbability: successProbability(suggestions, warnings),
		Analysis:           "Basic validation completed. Review suggestions for potential issues.",
	}
}

// validCUSIP reports whether id is a well-formed 9-character alphanumeric
// CUSIP. Checksum validation is intentionally not performed.
func validCUSIP(id string) bool {
	return len(id) == 9 && alnumPattern.MatchString(id)
}

// correctCUSIP normalizes a malformed CUSIP: strip spaces and hyphens,
// uppercase, right-pad with zeroes to 9 characters or truncate to 9.
func correctCUSIP(id string) string {
	corrected := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(id))
	if len(corrected) < 9 {
		corrected += strings.Repeat("0", 9-len(corrected))
	}
	if len(corrected) > 9 {
		corrected = corrected[:9]
	}
	return corrected
}

// validAccountNumber accepts any account that is non-empty and alphanumeric
// once common separators are removed.
func validAccountNumber(account string) bool {
	clean := strings.NewReplacer("-", "", "_", "", " ", "").Replace(account)
	return clean != "" && alnumPattern.MatchString(clean)
}

// accountSuggestion strips spaces and hyphens from the original value.
// Underscores are kept: they are not part of the correction, only of the
// validity check.
func accountSuggestion(field, current string) model.CorrectionSuggestion {
	return model.CorrectionSuggestion{
		Field:          field,
		CurrentValue:   current,
		SuggestedValue: strings.NewReplacer(" ", "", "-", "").Replace(current),
		Reason:         "Account number contains invalid characters",
		Confidence:     0.9,
		Severity:       model.SeverityHigh,
	}
}

// formatSSN reformats to XXX-XX-XXXX when exactly 9 digits are present,
// otherwise returns the input unchanged.
func formatSSN(ssn string) string {
	digits := nonDigits.ReplaceAllString(ssn, "")
	if len(digits) != 9 {
		return ssn
	}
	return fmt.Sprintf("%s-%s-%s", digits[:3], digits[3:5], digits[5:])
}

// successProbability starts at 1.0 and subtracts 0.30 per high-severity
// suggestion, 0.15 per medium, 0.05 per low, and 0.05 per warning, clamped
// to [0, 1]. Warnings may double-count issues that already carry a
// suggestion.
func successProbability(suggestions []model.CorrectionSuggestion, warnings []string) float64 {
	probability := 1.0

	for _, s := range suggestions {
		switch s.Severity {
		case model.SeverityHigh:
			probability -= 0.30
		case model.SeverityMedium:
			probability -= 0.15
		case model.SeverityLow:
			probability -= 0.05
		}
	}

	probability -= float64(len(warnings)) * 0.05

	if probability < 0 {
		return 0
	}
	if probability > 1 {
		return 1
	}
	return probability
}
