package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillon/acatflow/internal/model"
)

// mockClient records the prompt it was given and returns a canned result.
type mockClient struct {
	err     error
	verdict model.Verdict
	prompt  string
}

func (m *mockClient) Analyze(_ context.Context, prompt string) (model.Verdict, error) {
	m.prompt = prompt
	if m.err != nil {
		return model.Verdict{}, m.err
	}
	return m.verdict, nil
}

func testTransfer() model.TransferRecord {
	return model.TransferRecord{
		DeliveringAccount: "DEL12345",
		ReceivingAccount:  "REC67890",
		ContraFirm:        "0003",
		TransferType:      model.TransferPartial,
		TransferDate:      time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Securities: []model.Security{
			{CUSIP: "594918104", Symbol: "MSFT", Description: "Microsoft Corp", Quantity: 25, AssetType: model.AssetEquity},
		},
		Customer: model.CustomerInfo{FirstName: "Ada", LastName: "Lovelace"},
	}
}

func TestAnalyzeTransferSuccess(t *testing.T) {
	want := model.Verdict{
		IsValid:            true,
		SuccessProbability: 0.92,
		Analysis:           "Transfer looks clean.",
	}
	client := &mockClient{verdict: want}
	analyzer := NewAnalyzer(client)

	got := analyzer.AnalyzeTransfer(context.Background(), testTransfer())

	assert.Equal(t, want, got)
	assert.Contains(t, client.prompt, "594918104")
	assert.Contains(t, client.prompt, `"contra_firm": "0003"`)
	assert.Contains(t, client.prompt, "Respond in JSON format")
}

func TestAnalyzeTransferFallbackOnError(t *testing.T) {
	client := &mockClient{err: errors.New("connection refused")}
	analyzer := NewAnalyzer(client)

	verdict := analyzer.AnalyzeTransfer(context.Background(), testTransfer())

	assert.False(t, verdict.IsValid)
	assert.Empty(t, verdict.Suggestions)
	require.Len(t, verdict.Warnings, 1)
	assert.Contains(t, verdict.Warnings[0], "AI analysis failed")
	assert.Contains(t, verdict.Warnings[0], "connection refused")
	assert.Equal(t, 0.0, verdict.SuccessProbability)
	assert.True(t, strings.HasPrefix(verdict.Analysis, "Error analyzing transfer data"))
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{Provider: "anthropic"})
	require.Error(t, err)

	_, err = NewClient(Config{Provider: "openai"})
	require.Error(t, err)
}

func TestNewClientProviders(t *testing.T) {
	for _, provider := range []string{"anthropic", "Anthropic", "openai", "OPENAI"} {
		client, err := NewClient(Config{Provider: provider, APIKey: "test-key"})
		require.NoError(t, err, provider)
		assert.NotNil(t, client)
	}
}
