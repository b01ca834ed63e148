package validation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillon/acatflow/internal/model"
)

func cleanTransfer() model.TransferRecord {
	return model.TransferRecord{
		DeliveringAccount: "DEL12345",
		ReceivingAccount:  "REC67890",
		ContraFirm:        "0002",
		TransferType:      model.TransferFull,
		TransferDate:      time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Securities: []model.Security{
			{
				CUSIP:       "037833100",
				Symbol:      "AAPL",
				Description: "Apple Inc",
				Quantity:    100,
				AssetType:   model.AssetEquity,
			},
		},
		Customer: model.CustomerInfo{
			FirstName: "Jane",
			LastName:  "Doe",
			SSN:       "123-45-6789",
		},
	}
}

func TestEvaluateCleanRecord(t *testing.T) {
	verdict := Evaluate(cleanTransfer())

	assert.True(t, verdict.IsValid)
	assert.Empty(t, verdict.Suggestions)
	assert.Empty(t, verdict.Warnings)
	assert.InDelta(t, 1.0, verdict.SuccessProbability, 0.0001)
	assert.NotEmpty(t, verdict.Analysis)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	rec := cleanTransfer()
	rec.ContraFirm = "9999"
	rec.Securities[0].CUSIP = "BAD"

	first := Evaluate(rec)
	second := Evaluate(rec)

	assert.Equal(t, first, second)
}

func TestEvaluateUnknownContraFirm(t *testing.T) {
	rec := cleanTransfer()
	rec.ContraFirm = "4242"

	verdict := Evaluate(rec)

	require.Len(t, verdict.Suggestions, 1)
	s := verdict.Suggestions[0]
	assert.Equal(t, "contra_firm", s.Field)
	assert.Equal(t, "4242", s.CurrentValue)
	assert.Equal(t, DefaultContraFirm, s.SuggestedValue)
	assert.Equal(t, model.SeverityMedium, s.Severity)
	require.Len(t, verdict.Warnings, 1)
	assert.Contains(t, verdict.Warnings[0], "4242")
	assert.False(t, verdict.IsValid)
	// one medium suggestion plus one warning
	assert.InDelta(t, 0.80, verdict.SuccessProbability, 0.0001)
}

func TestEvaluateCUSIPCorrections(t *testing.T) {
	tests := []struct {
		name      string
		cusip     string
		corrected string
	}{
		{name: "too short pads with zeroes", cusip: "12345678", corrected: "123456780"},
		{name: "too long truncates", cusip: "ABCDEFGHIJ", corrected: "ABCDEFGHI"},
		{name: "separators stripped and uppercased", cusip: "03783-310x", corrected: "03783310X"},
		{name: "spaces stripped then padded", cusip: "12 34", corrected: "123400000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cleanTransfer()
			rec.Securities[0].CUSIP = tt.cusip

			verdict := Evaluate(rec)

			require.Len(t, verdict.Suggestions, 1)
			s := verdict.Suggestions[0]
			assert.Equal(t, "securities[0].cusip", s.Field)
			assert.Equal(t, tt.corrected, s.SuggestedValue)
			assert.Len(t, s.SuggestedValue, 9)
			assert.Equal(t, model.SeverityHigh, s.Severity)
			require.Len(t, verdict.Warnings, 1)
		})
	}
}

func TestEvaluateAccountNumbers(t *testing.T) {
	rec := cleanTransfer()
	rec.DeliveringAccount = "DEL#12 34"

	verdict := Evaluate(rec)

	require.Len(t, verdict.Suggestions, 1)
	assert.Equal(t, "delivering_account", verdict.Suggestions[0].Field)
	// only spaces and hyphens are stripped by the correction
	assert.Equal(t, "DEL#1234", verdict.Suggestions[0].SuggestedValue)
	assert.Equal(t, model.SeverityHigh, verdict.Suggestions[0].Severity)
	// account checks warn via the suggestion only
	assert.Empty(t, verdict.Warnings)
}

func TestEvaluateAccountSeparatorsAreValid(t *testing.T) {
	// Separators are legal as long as something alphanumeric remains.
	rec := cleanTransfer()
	rec.DeliveringAccount = "DEL-123_4"
	rec.ReceivingAccount = "R_1-2"

	verdict := Evaluate(rec)

	assert.True(t, verdict.IsValid)
}

func TestEvaluateAccountOnlySeparators(t *testing.T) {
	rec := cleanTransfer()
	rec.ReceivingAccount = "--__"

	verdict := Evaluate(rec)

	require.Len(t, verdict.Suggestions, 1)
	assert.Equal(t, "receiving_account", verdict.Suggestions[0].Field)
}

func TestEvaluateSSN(t *testing.T) {
	tests := []struct {
		name      string
		ssn       string
		suggested string
		wantIssue bool
	}{
		{name: "well formed", ssn: "123-45-6789", wantIssue: false},
		{name: "absent", ssn: "", wantIssue: false},
		{name: "nine raw digits reformatted", ssn: "123456789", suggested: "123-45-6789", wantIssue: true},
		{name: "wrong digit count left unchanged", ssn: "12-34", suggested: "12-34", wantIssue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cleanTransfer()
			rec.Customer.SSN = tt.ssn

			verdict := Evaluate(rec)

			if !tt.wantIssue {
				assert.True(t, verdict.IsValid)
				return
			}
			require.Len(t, verdict.Suggestions, 1)
			s := verdict.Suggestions[0]
			assert.Equal(t, "customer.ssn", s.Field)
			assert.Equal(t, tt.suggested, s.SuggestedValue)
			assert.Equal(t, model.SeverityMedium, s.Severity)
		})
	}
}

func TestEvaluateSuggestionOrder(t *testing.T) {
	rec := cleanTransfer()
	rec.ContraFirm = "7777"
	rec.Securities = append(rec.Securities, model.Security{
		CUSIP:       "short",
		Description: "Broken",
		Quantity:    1,
		AssetType:   model.AssetBond,
	})
	rec.DeliveringAccount = "DEL#1"
	rec.Customer.SSN = "123456789"

	verdict := Evaluate(rec)

	require.Len(t, verdict.Suggestions, 4)
	assert.Equal(t, "contra_firm", verdict.Suggestions[0].Field)
	assert.Equal(t, "securities[1].cusip", verdict.Suggestions[1].Field)
	assert.Equal(t, "delivering_account", verdict.Suggestions[2].Field)
	assert.Equal(t, "customer.ssn", verdict.Suggestions[3].Field)
}

func TestSuccessProbabilityClamp(t *testing.T) {
	rec := cleanTransfer()
	rec.ContraFirm = "9998"
	rec.DeliveringAccount = "x y"
	rec.ReceivingAccount = "a b"
	rec.Customer.SSN = "1"
	rec.Securities = nil
	for i := 0; i < 10; i++ {
		rec.Securities = append(rec.Securities, model.Security{
			CUSIP:       fmt.Sprintf("bad-%d", i),
			Description: "Broken",
			Quantity:    1,
			AssetType:   model.AssetEquity,
		})
	}

	verdict := Evaluate(rec)

	assert.GreaterOrEqual(t, verdict.SuccessProbability, 0.0)
	assert.LessOrEqual(t, verdict.SuccessProbability, 1.0)
	assert.Equal(t, 0.0, verdict.SuccessProbability)
}

func TestWarningsDoNotInvalidateAlone(t *testing.T) {
	// Every current warning source also emits a suggestion, so validity
	// tracks the suggestion list exactly.
	verdict := Evaluate(cleanTransfer())
	assert.True(t, verdict.IsValid)
	assert.Empty(t, verdict.Warnings)
}
