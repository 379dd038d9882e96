package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/suPer8Hu/mcp-gateway/internal/ai"
)

// ToolRunner executes one dispatcher action.
type ToolRunner interface {
	Run(ctx context.Context, action string, params map[string]any) (any, error)
}

type Service struct {
	provider ai.Provider
	tools    ToolRunner
	model    string
	now      func() time.Time
}

func NewService(provider ai.Provider, tools ToolRunner, defaultModel string) *Service {
	return &Service{provider: provider, tools: tools, model: defaultModel, now: time.Now}
}

// ProcessChat runs one exchange with the model. When the model asks for tool
// calls they are executed and the results sent back for a final answer.
func (s *Service) ProcessChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.model
	}
	temp := DefaultTemperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}

	// 1) system prompt first, then the caller's conversation
	msgs := make([]ai.Message, 0, len(req.Messages)+1)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: systemPrompt})
	for _, m := range req.Messages {
		msgs = append(msgs, ai.Message{Role: m.Role, Content: m.Content})
	}

	tools := []ai.Tool{databaseTool()}

	// 2) first completion, tools offered
	first, err := s.provider.Complete(ctx, ai.Completion{
		Model:       model,
		Messages:    msgs,
		Tools:       tools,
		Temperature: &temp,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("Error al procesar la solicitud de chat: %w", err)
	}

	// 3) plain answer
	calls := first.Message.ToolCalls
	if len(calls) == 0 {
		return &ChatResponse{
			Content:   first.Message.Content,
			Model:     first.Model,
			Usage:     first.Usage,
			CreatedAt: s.now().UTC(),
		}, nil
	}

	// 4) run every call in order; a failed call is reported, not fatal
	results := make([]ToolResult, 0, len(calls))
	assistant := ai.Message{Role: ai.RoleAssistant, Content: first.Message.Content}
	toolMsgs := make([]ai.Message, 0, len(calls))
	for _, call := range calls {
		call.Function.Arguments = encodeArguments(call.Function.Arguments)
		assistant.ToolCalls = append(assistant.ToolCalls, call)

		res := s.runTool(ctx, call)
		results = append(results, res)
		toolMsgs = append(toolMsgs, ai.Message{
			Role:       ai.RoleTool,
			ToolCallID: call.ID,
			Content:    toolContent(res),
		})
	}

	// 5) resubmit with the results; tool_choice none forces a text answer
	msgs = append(msgs, assistant)
	msgs = append(msgs, toolMsgs...)
	final, err := s.provider.Complete(ctx, ai.Completion{
		Model:       model,
		Messages:    msgs,
		Tools:       tools,
		ToolChoice:  "none",
		Temperature: &temp,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("Error al procesar la solicitud de chat: %w", err)
	}

	return &ChatResponse{
		Content:     final.Message.Content,
		Model:       final.Model,
		Usage:       final.Usage,
		ToolResults: results,
		CreatedAt:   s.now().UTC(),
	}, nil
}

func (s *Service) runTool(ctx context.Context, call ai.ToolCall) ToolResult {
	res := ToolResult{ToolCallID: call.ID}
	if call.Function.Name != ToolName {
		res.Error = fmt.Sprintf("Herramienta desconocida: %s", call.Function.Name)
		return res
	}

	args, err := decodeArguments(call.Function.Arguments)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	action := cast.ToString(args["action"])
	delete(args, "action")

	out, err := s.tools.Run(ctx, action, args)
	if err != nil {
		slog.Warn("tool call failed", "tool_call_id", call.ID, "action", action, "err", err)
		res.Error = err.Error()
		return res
	}
	res.Result = out
	return res
}

func toolContent(res ToolResult) string {
	var payload any = res.Result
	if res.Error != "" {
		payload = map[string]string{"error": res.Error}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(b)
}
