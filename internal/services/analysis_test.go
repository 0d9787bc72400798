package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marisol/coachloop-api/internal/config"
	"github.com/marisol/coachloop-api/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeoutSeconds int) *AnalysisClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewAnalysisClient(&config.Config{
		OpenAIAPIKey:           "test-key",
		OpenAIBaseURL:          server.URL,
		OpenAIModel:            "test-model",
		AnalysisTimeoutSeconds: timeoutSeconds,
	}, logger.NewNop())
}

func completionResponse(t *testing.T, content string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	})
	require.NoError(t, err)
	return payload
}

func TestAnalyzeParsesFencedJSON(t *testing.T) {
	content := "Here is my analysis:\n```json\n{\"summary\": \"solid week\", \"risks\": \"none\", \"actions\": \"keep pairing\"}\n```\nHope that helps."
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write(completionResponse(t, content))
	}, 30)

	result, err := client.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, FeedbackResult{Summary: "solid week", Risks: "none", Actions: "keep pairing"}, result)
}

func TestAnalyzeParsesRawJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionResponse(t, `{"summary": "good progress", "risks": "scope creep", "actions": "timebox"}`))
	}, 30)

	result, err := client.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "good progress", result.Summary)
	assert.Equal(t, "scope creep", result.Risks)
	assert.Equal(t, "timebox", result.Actions)
}

func TestAnalyzeDefaultsMissingRisksAndActions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionResponse(t, `{"summary": "just a summary"}`))
	}, 30)

	result, err := client.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "just a summary", result.Summary)
	assert.Empty(t, result.Risks)
	assert.Empty(t, result.Actions)
}

func TestAnalyzeDegradesToRawTextWhenUnparseable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionResponse(t, "The learner had a fine week, nothing structured about it."))
	}, 30)

	result, err := client.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "The learner had a fine week, nothing structured about it.", result.Summary)
	assert.Empty(t, result.Risks)
	assert.Empty(t, result.Actions)
}

func TestAnalyzeDegradesWhenSummaryNotAString(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionResponse(t, `{"summary": 42, "risks": "none"}`))
	}, 30)

	result, err := client.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	// Hard parse failure falls back to raw text, never an error.
	assert.NotEmpty(t, result.Summary)
	assert.Contains(t, result.Summary, "42")
}

func TestAnalyzeTruncatesDegradedSummary(t *testing.T) {
	long := strings.Repeat("x", 2000)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionResponse(t, long))
	}, 30)

	result, err := client.Analyze(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Len(t, result.Summary, 500)
}

func TestAnalyzeEmptyCompletionIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionResponse(t, "   "))
	}, 30)

	_, err := client.Analyze(context.Background(), "prompt")
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AnalysisErrEmpty, ae.Kind)
	assert.True(t, ae.Retryable())
}

func TestAnalyzeServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}, 30)

	_, err := client.Analyze(context.Background(), "prompt")
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AnalysisErrStatus, ae.Kind)
	assert.Equal(t, http.StatusBadGateway, ae.StatusCode)
	assert.True(t, ae.Retryable())
}

func TestAnalyzeClientErrorIsNotRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}, 30)

	_, err := client.Analyze(context.Background(), "prompt")
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AnalysisErrStatus, ae.Kind)
	assert.False(t, ae.Retryable())
}

func TestAnalyzeRateLimitIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}, 30)

	_, err := client.Analyze(context.Background(), "prompt")
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.True(t, ae.Retryable())
}

func TestAnalyzeTimesOut(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
		w.Write(completionResponse(t, `{"summary": "too late"}`))
	}, 1)

	start := time.Now()
	_, err := client.Analyze(context.Background(), "prompt")
	elapsed := time.Since(start)

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AnalysisErrTimeout, ae.Kind)
	assert.True(t, ae.Retryable())
	assert.Less(t, elapsed, 1400*time.Millisecond)
}

func TestIsRetryableAnalysisError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"typed timeout", &AnalysisError{Kind: AnalysisErrTimeout}, true},
		{"typed 400", &AnalysisError{Kind: AnalysisErrStatus, StatusCode: 400}, false},
		{"typed 503", &AnalysisError{Kind: AnalysisErrStatus, StatusCode: 503}, true},
		{"substring timeout", errors.New("request timed out"), true},
		{"substring connection", errors.New("connection refused"), true},
		{"substring rate limit", errors.New("Rate Limit reached"), true},
		{"substring quota", errors.New("quota exceeded for project"), true},
		{"substring 503", errors.New("upstream returned 503"), true},
		{"plain error", errors.New("invalid prompt"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryableAnalysisError(tc.err))
		})
	}
}

func TestParseFeedbackPrefersFencedBlock(t *testing.T) {
	raw := "{\"summary\": \"outer\"}\n```json\n{\"summary\": \"fenced\"}\n```"
	result, degraded := parseFeedback(raw)
	assert.False(t, degraded)
	assert.Equal(t, "fenced", result.Summary)
}

func TestParseFeedbackUnterminatedFenceFallsThrough(t *testing.T) {
	result, degraded := parseFeedback("```json\n{\"summary\": \"never closed\"")
	assert.True(t, degraded)
	assert.NotEmpty(t, result.Summary)
}
