package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marisol/coachloop-api/internal/config"
	"github.com/marisol/coachloop-api/internal/logger"
)

// FeedbackResult is the parsed output of one analysis invocation. It is
// transient: on success it becomes the reflection's ai_* fields.
type FeedbackResult struct {
	Summary string `json:"summary"`
	Risks   string `json:"risks"`
	Actions string `json:"actions"`
}

// AnalysisErrorKind classifies why an analysis attempt failed.
type AnalysisErrorKind string

const (
	AnalysisErrTimeout   AnalysisErrorKind = "timeout"
	AnalysisErrTransport AnalysisErrorKind = "transport"
	AnalysisErrStatus    AnalysisErrorKind = "status"
	AnalysisErrEmpty     AnalysisErrorKind = "empty_response"
)

type AnalysisError struct {
	Kind       AnalysisErrorKind
	StatusCode int
	Message    string
}

func (e *AnalysisError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("analysis %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("analysis %s: %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is transient. Timeouts,
// transport failures, and empty bodies are worth another attempt;
// HTTP statuses retry only on 408, 429 and 5xx.
func (e *AnalysisError) Retryable() bool {
	switch e.Kind {
	case AnalysisErrTimeout, AnalysisErrTransport, AnalysisErrEmpty:
		return true
	case AnalysisErrStatus:
		if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
			return true
		}
		return e.StatusCode >= 500 && e.StatusCode <= 599
	}
	return false
}

var retryableSubstrings = []string{
	"timeout",
	"timed out",
	"network",
	"connection",
	"rate limit",
	"429",
	"500",
	"502",
	"503",
	"504",
	"service unavailable",
	"quota exceeded",
}

// IsRetryableAnalysisError classifies errors for the retry executor.
// Typed AnalysisErrors carry their own classification; anything else is
// matched against known transient-failure substrings so wrapped
// transport errors still classify correctly.
func IsRetryableAnalysisError(err error) bool {
	if err == nil {
		return false
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Retryable()
	}
	msg := strings.ToLower(err.Error())
	for _, s := range retryableSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Analyzer is the single outbound text-generation call the pipeline
// depends on. Tests substitute a mock.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (FeedbackResult, error)
}

// AnalysisClient calls an OpenAI-compatible chat-completions endpoint
// and parses the reply into a FeedbackResult.
type AnalysisClient struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	log        *logger.Logger
}

func NewAnalysisClient(cfg *config.Config, log *logger.Logger) *AnalysisClient {
	return &AnalysisClient{
		baseURL: strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		apiKey:  cfg.OpenAIAPIKey,
		model:   cfg.OpenAIModel,
		timeout: time.Duration(cfg.AnalysisTimeoutSeconds) * time.Second,
		// Per-request deadline is enforced via context; the client
		// itself carries no timeout so the cap stays in one place.
		httpClient: &http.Client{},
		log:        log,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze makes exactly one generation call, racing it against the
// configured wall-clock timeout, and parses the text that comes back.
func (c *AnalysisClient) Analyze(ctx context.Context, prompt string) (FeedbackResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return FeedbackResult{}, &AnalysisError{Kind: AnalysisErrTransport, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return FeedbackResult{}, &AnalysisError{Kind: AnalysisErrTransport, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return FeedbackResult{}, &AnalysisError{Kind: AnalysisErrTimeout, Message: fmt.Sprintf("no response within %s", c.timeout)}
		}
		return FeedbackResult{}, &AnalysisError{Kind: AnalysisErrTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return FeedbackResult{}, &AnalysisError{Kind: AnalysisErrTransport, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FeedbackResult{}, &AnalysisError{
			Kind:       AnalysisErrStatus,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(raw), 200),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return FeedbackResult{}, &AnalysisError{Kind: AnalysisErrEmpty, Message: "undecodable response envelope"}
	}
	if len(parsed.Choices) == 0 {
		return FeedbackResult{}, &AnalysisError{Kind: AnalysisErrEmpty, Message: "no choices in response"}
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return FeedbackResult{}, &AnalysisError{Kind: AnalysisErrEmpty, Message: "empty completion text"}
	}

	result, degraded := parseFeedback(content)
	if degraded {
		// Worth logging, not worth retrying: a degraded-but-present
		// result always beats nothing.
		c.log.Warn("analysis output was not structured JSON, using raw-text fallback",
			"model", c.model,
			"content_length", len(content),
		)
	}
	return result, nil
}

// parseFeedback looks for a fenced ```json block first, then tries the
// raw text as JSON. A missing or non-string summary is a parse failure,
// which degrades to the first ~500 characters of raw text as the
// summary rather than discarding the model's output.
func parseFeedback(raw string) (FeedbackResult, bool) {
	if block, ok := extractFencedJSON(raw); ok {
		if result, ok := decodeFeedback(block); ok {
			return result, false
		}
	}
	if result, ok := decodeFeedback(raw); ok {
		return result, false
	}
	return FeedbackResult{Summary: truncate(raw, 500)}, true
}

func decodeFeedback(text string) (FeedbackResult, bool) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return FeedbackResult{}, false
	}

	summary, ok := fields["summary"].(string)
	if !ok || strings.TrimSpace(summary) == "" {
		return FeedbackResult{}, false
	}

	// Partial structured output is acceptable: risks and actions
	// default to empty when absent or malformed.
	result := FeedbackResult{Summary: summary}
	if risks, ok := fields["risks"].(string); ok {
		result.Risks = risks
	}
	if actions, ok := fields["actions"].(string); ok {
		result.Actions = actions
	}
	return result, true
}

func extractFencedJSON(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	start := strings.Index(lower, "```json")
	if start < 0 {
		return "", false
	}
	rest := raw[start+len("```json"):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
