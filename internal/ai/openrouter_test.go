package ai

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

	"github.com/suPer8Hu/mcp-gateway/internal/common"
)

func TestComplete_SendsRequestAndDecodesReply(t *testing.T) {
	var got openRouterChatReq
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "openai/gpt-4o-mini-2024",
			"choices": [{"finish_reason": "tool_calls", "message": {
				"role": "assistant", "content": null,
				"tool_calls": [{"id": "call_1", "type": "function",
					"function": {"name": "database_operation", "arguments": "{\"action\":\"list_tables\"}"}}]
			}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15,
				"prompt_tokens_details": {"cached_tokens": 4}}
		}`))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL+"/v1/", "sk-test", "default-model", "https://shop.example", "shop", time.Second)
	temp := 0.2
	res, err := p.Complete(context.Background(), Completion{
		Messages:    []Message{{Role: RoleUser, Content: "hola"}},
		Tools:       []Tool{{Type: "function", Function: FunctionDef{Name: "database_operation", Parameters: map[string]any{"type": "object"}}}},
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", headers.Get("Authorization"))
	assert.Equal(t, "https://shop.example", headers.Get("HTTP-Referer"))
	assert.Equal(t, "shop", headers.Get("X-Title"))
	assert.Equal(t, "default-model", got.Model)
	require.Len(t, got.Tools, 1)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.2, *got.Temperature)
	assert.Nil(t, got.MaxTokens)

	assert.Equal(t, "openai/gpt-4o-mini-2024", res.Model)
	assert.Equal(t, "tool_calls", res.FinishReason)
	require.Len(t, res.Message.ToolCalls, 1)
	assert.Equal(t, "call_1", res.Message.ToolCalls[0].ID)
	assert.Equal(t, 15, res.Usage.TotalTokens)
	assert.Equal(t, 4, res.Usage.PromptTokensDetails.CachedTokens)
	assert.Equal(t, 0, res.Usage.CompletionTokensDetails.ReasoningTokens)
}

func TestComplete_NonSuccessCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "sk-test", "m", "", "", time.Second)
	_, err := p.Complete(context.Background(), Completion{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.Error(t, err)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusTooManyRequests, upErr.StatusCode)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestComplete_NonSuccessKeepsLargeBody(t *testing.T) {
	detail := strings.Repeat("x", 16*1024) + "END"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(detail))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "sk-test", "m", "", "", time.Second)
	_, err := p.Complete(context.Background(), Completion{Messages: []Message{{Role: RoleUser, Content: "x"}}})

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, detail, upErr.Body)
}

func TestComplete_MissingUsageDefaultsToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hola"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "sk-test", "m", "", "", time.Second)
	res, err := p.Complete(context.Background(), Completion{Model: "override", Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, "hola", res.Message.Content)
	assert.Equal(t, "override", res.Model)
	assert.Equal(t, Usage{}, res.Usage)
}

func TestComplete_TimeoutKind(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewOpenRouterProvider(srv.URL, "sk-test", "m", "", "", 50*time.Millisecond)
	_, err := p.Complete(context.Background(), Completion{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindTimeout))
}

func TestComplete_RequiresKey(t *testing.T) {
	p := NewOpenRouterProvider("", "", "m", "", "", 0)
	_, err := p.Complete(context.Background(), Completion{})
	assert.Error(t, err)
}
