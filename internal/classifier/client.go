package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/config"
	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/observability"
)

// Role is the speaker of a chat turn sent to the service.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the structured history sent to the chat endpoint.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client is the single capability the rest of the service depends on.
type Client interface {
	GenerateResponse(ctx context.Context, history []Message) (string, error)
	CategorizeTicket(ctx context.Context, description string) domain.Classification
	CheckHealth(ctx context.Context) bool
}

// HTTPClient talks to the classification/chat service over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewHTTPClient builds a client for the configured endpoint.
func NewHTTPClient(cfg config.ClassifierConfig, logger *zap.Logger, metrics *observability.Metrics) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
		metrics: metrics,
	}
}

type chatRequest struct {
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type categorizeRequest struct {
	Description string `json:"description"`
}

type categorizeResponse struct {
	Category     string `json:"category"`
	Priority     string `json:"priority"`
	AssignedTeam string `json:"assigned_team"`
}

// GenerateResponse posts the history to /api/chat and returns the reply text.
// Every failure is a *GenerationError.
func (c *HTTPClient) GenerateResponse(ctx context.Context, history []Message) (string, error) {
	var out chatResponse
	status, err := c.postJSON(ctx, "/api/chat", chatRequest{Messages: history}, &out)
	if err != nil {
		c.metrics.RecordClassifierCall("chat", "error")
		c.logger.Warn("chat generation failed", zap.Int("status", status), zap.Error(err))
		return "", &GenerationError{Status: status, err: err}
	}
	if strings.TrimSpace(out.Response) == "" {
		c.metrics.RecordClassifierCall("chat", "empty")
		return "", &GenerationError{Status: status, err: ErrEmptyResponse}
	}
	c.metrics.RecordClassifierCall("chat", "ok")
	return out.Response, nil
}

// CategorizeTicket posts the description to /api/categorize. It never fails:
// missing fields take defaults and an unusable call falls back to Fallback.
func (c *HTTPClient) CategorizeTicket(ctx context.Context, description string) domain.Classification {
	var out categorizeResponse
	if _, err := c.postJSON(ctx, "/api/categorize", categorizeRequest{Description: description}, &out); err != nil {
		c.logger.Warn("categorization failed, using keyword fallback", zap.Error(err))
		c.metrics.RecordClassifierCall("categorize", "fallback")
		c.metrics.RecordFallback()
		return Fallback(description)
	}
	c.metrics.RecordClassifierCall("categorize", "ok")
	return normalize(out)
}

// CheckHealth probes /api/health. Any transport error or non-2xx is false.
func (c *HTTPClient) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("classifier health check failed", zap.Error(err))
		c.metrics.RecordClassifierCall("health", "error")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok {
		c.metrics.RecordClassifierCall("health", "ok")
	} else {
		c.metrics.RecordClassifierCall("health", "unhealthy")
	}
	return ok
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("classifier returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// normalize substitutes defaults for missing or unknown fields.
func normalize(raw categorizeResponse) domain.Classification {
	result := Default()
	if category := domain.TicketCategory(strings.ToLower(strings.TrimSpace(raw.Category))); category.Valid() {
		result.Category = category
	}
	if priority := domain.TicketPriority(strings.ToLower(strings.TrimSpace(raw.Priority))); priority.Valid() {
		result.Priority = priority
	}
	if team := strings.TrimSpace(raw.AssignedTeam); team != "" {
		result.AssignedTeam = team
	}
	return result
}
