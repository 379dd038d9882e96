package chat

import (
	"time"

	"github.com/suPer8Hu/mcp-gateway/internal/ai"
)

const DefaultTemperature = 0.7

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=system user assistant tool"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages    []ChatMessage `json:"messages" binding:"required,min=1,dive"`
	Model       string        `json:"model,omitempty"`
	Temperature *float64      `json:"temperature,omitempty" binding:"omitempty,gte=0,lte=1"`
	MaxTokens   *int          `json:"max_tokens,omitempty" binding:"omitempty,gt=0"`
}

// ToolResult carries either Result or Error for one tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

type ChatResponse struct {
	Content     string       `json:"content"`
	Model       string       `json:"model"`
	Usage       ai.Usage     `json:"usage"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
