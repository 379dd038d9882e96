package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
)

// maxErrorBody bounds how much of a failed reply is kept in UpstreamError.
const maxErrorBody = 1 << 20

type OpenRouterProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	SiteURL string
	AppName string
	Client  *http.Client
}

// UpstreamError is a non-2xx reply from the completions endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("openrouter: %s", e.Body)
}

type openRouterChatReq struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type openRouterChatResp struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string, timeout time.Duration) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouterProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		SiteURL: siteURL,
		AppName: appName,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (p *OpenRouterProvider) Complete(ctx context.Context, c Completion) (*CompletionResult, error) {
	if p.Client == nil {
		return nil, errors.New("openrouter: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		model = strings.TrimSpace(p.Model)
	}
	if model == "" {
		return nil, errors.New("openrouter: model is required")
	}

	b, err := json.Marshal(openRouterChatReq{
		Model:       model,
		Messages:    c.Messages,
		Tools:       c.Tools,
		ToolChoice:  c.ToolChoice,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	if p.SiteURL != "" {
		req.Header.Set("HTTP-Referer", p.SiteURL)
	}
	if p.AppName != "" {
		req.Header.Set("X-Title", p.AppName)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, common.Timeout("chat completions", err)
		}
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: msg}
	}

	var decoded openRouterChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if isTimeout(err) {
			return nil, common.Timeout("chat completions", err)
		}
		return nil, fmt.Errorf("openrouter: decode response: %w", err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, fmt.Errorf("openrouter: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("openrouter: empty response")
	}

	out := &CompletionResult{
		Model:        decoded.Model,
		Message:      decoded.Choices[0].Message,
		FinishReason: decoded.Choices[0].FinishReason,
	}
	if out.Model == "" {
		out.Model = model
	}
	if decoded.Usage != nil {
		out.Usage = *decoded.Usage
	}
	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
