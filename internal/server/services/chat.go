package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/dmitrijs2005/zia/internal/logging"
	"github.com/dmitrijs2005/zia/internal/server/config"
)

// ContentBlock is one block of a chat message: text, tool_use or
// tool_result. Optional fields are pointers so that only absent values are
// omitted; an empty tool input is still sent as {}.
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      *string         `json:"text,omitempty"`
	ID        *string         `json:"id,omitempty"`
	Name      *string         `json:"name,omitempty"`
	Input     *map[string]any `json:"input,omitempty"`
	ToolUseID *string         `json:"tool_use_id,omitempty"`
	Content   *string         `json:"content,omitempty"`
	IsError   *bool           `json:"is_error,omitempty"`
}

type ChatMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type ToolInputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   *[]string      `json:"required,omitempty"`
}

type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema ToolInputSchema `json:"input_schema"`
}

// ChatRequest is a conversation submitted by an authenticated user.
type ChatRequest struct {
	Messages []ChatMessage    `json:"messages"`
	System   *string          `json:"system,omitempty"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// upstreamRequest is the body sent to the Messages API.
type upstreamRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	Messages  []ChatMessage    `json:"messages"`
	System    string           `json:"system,omitempty"`
	Tools     []ToolDefinition `json:"tools,omitempty"`
}

// Sender posts a prepared request body upstream and returns the raw
// response body. llm.Client implements it.
type Sender interface {
	Send(ctx context.Context, body []byte) ([]byte, error)
}

// ChatService forwards conversations to the LLM provider on behalf of
// signed-in users.
type ChatService struct {
	sender    Sender
	model     string
	maxTokens int
	logger    logging.Logger
}

func NewChatService(sender Sender, cfg *config.Config, logger logging.Logger) *ChatService {
	return &ChatService{
		sender:    sender,
		model:     cfg.ClaudeModel,
		maxTokens: cfg.ClaudeMaxTokens,
		logger:    logger.With("module", "chat_service"),
	}
}

// Validate checks the shape of a chat request before anything is sent.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: messages must not be empty", common.ErrInvalidArguments)
	}
	for i, m := range r.Messages {
		if strings.TrimSpace(m.Role) == "" {
			return fmt.Errorf("%w: message %d has no role", common.ErrInvalidArguments, i)
		}
		if len(m.Content) == 0 {
			return fmt.Errorf("%w: message %d has no content", common.ErrInvalidArguments, i)
		}
		for j, b := range m.Content {
			if b.Type == "" {
				return fmt.Errorf("%w: message %d block %d has no type", common.ErrInvalidArguments, i, j)
			}
		}
	}
	for i, t := range r.Tools {
		if t.Name == "" {
			return fmt.Errorf("%w: tool %d has no name", common.ErrInvalidArguments, i)
		}
	}
	return nil
}

// Send forwards req for userID and returns the provider's JSON response as
// is.
func (s *ChatService) Send(ctx context.Context, userID string, req ChatRequest) (json.RawMessage, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := upstreamRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages:  req.Messages,
		Tools:     normalizeTools(req.Tools),
	}
	if req.System != nil {
		body.System = *req.System
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	resp, err := s.sender.Send(ctx, payload)
	if err != nil {
		s.logger.Error(ctx, "chat proxy error", "user_id", userID, "error", err)
		return nil, err
	}

	if !json.Valid(resp) {
		err := errors.New("upstream returned invalid JSON")
		s.logger.Error(ctx, "chat proxy error", "user_id", userID, "error", err)
		return nil, err
	}

	return json.RawMessage(resp), nil
}

func normalizeTools(tools []ToolDefinition) []ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	out := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		if t.InputSchema.Type == "" {
			t.InputSchema.Type = "object"
		}
		if t.InputSchema.Properties == nil {
			t.InputSchema.Properties = map[string]any{}
		}
		out[i] = t
	}
	return out
}
