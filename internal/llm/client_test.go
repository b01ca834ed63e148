package llm

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillon/acatflow/internal/common"
)

// countingTransport serves a canned response and counts round trips.
type countingTransport struct {
	body   string
	calls  int
	status int
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	return &http.Response{
		StatusCode: t.status,
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newCountingAnthropic(t *testing.T, transport *countingTransport) Client {
	t.Helper()
	client, err := newAnthropicClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	client.(*anthropicClient).httpClient = &http.Client{Transport: transport}
	return client
}

func newCountingOpenAI(t *testing.T, transport *countingTransport) Client {
	t.Helper()
	client, err := newOpenAIClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	client.(*openAIClient).httpClient = &http.Client{Transport: transport}
	return client
}

func TestAnthropicAnalyzeServerErrorSingleAttempt(t *testing.T) {
	transport := &countingTransport{status: http.StatusInternalServerError, body: "upstream exploded"}
	client := newCountingAnthropic(t, transport)

	_, err := client.Analyze(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, 1, transport.calls, "a failing analysis call must not be repeated")
}

func TestAnthropicAnalyzeRateLimitSingleAttempt(t *testing.T) {
	transport := &countingTransport{status: http.StatusTooManyRequests, body: ""}
	client := newCountingAnthropic(t, transport)

	_, err := client.Analyze(context.Background(), "prompt")
	assert.ErrorIs(t, err, common.ErrRateLimit)
	assert.Equal(t, 1, transport.calls)
}

func TestAnthropicAnalyzeSuccess(t *testing.T) {
	transport := &countingTransport{
		status: http.StatusOK,
		body:   `{"content":[{"type":"text","text":"{\"is_valid\":true,\"suggestions\":[],\"warnings\":[],\"success_probability\":0.9,\"ai_analysis\":\"Looks clean.\"}"}]}`,
	}
	client := newCountingAnthropic(t, transport)

	verdict, err := client.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.True(t, verdict.IsValid)
	assert.InDelta(t, 0.9, verdict.SuccessProbability, 1e-9)
	assert.Equal(t, 1, transport.calls)
}

func TestOpenAIAnalyzeServerErrorSingleAttempt(t *testing.T) {
	transport := &countingTransport{status: http.StatusBadGateway, body: "bad gateway"}
	client := newCountingOpenAI(t, transport)

	_, err := client.Analyze(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, 1, transport.calls, "a failing analysis call must not be repeated")
}

func TestOpenAIAnalyzeSuccess(t *testing.T) {
	transport := &countingTransport{
		status: http.StatusOK,
		body:   `{"choices":[{"message":{"content":"{\"is_valid\":false,\"suggestions\":[],\"warnings\":[\"manual review advised\"],\"success_probability\":0.4,\"ai_analysis\":\"Risky transfer.\"}"}}]}`,
	}
	client := newCountingOpenAI(t, transport)

	verdict, err := client.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.False(t, verdict.IsValid)
	require.Len(t, verdict.Warnings, 1)
	assert.Equal(t, 1, transport.calls)
}
