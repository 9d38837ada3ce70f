package services

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/zia/internal/client/client"
)

// ChatService keeps one running conversation and sends it whole on each
// turn. A failed turn leaves the history unchanged.
type ChatService struct {
	api    API
	mu     sync.Mutex
	system *string
	turns  []client.Message
}

func NewChatService(api API) *ChatService {
	return &ChatService{api: api}
}

// SetSystem sets the system prompt for following turns. An empty prompt
// clears it.
func (s *ChatService) SetSystem(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		s.system = nil
		return
	}
	s.system = &prompt
}

// Send appends text as a user turn and returns the assistant's text answer.
func (s *ChatService) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := client.Message{Role: "user", Content: []client.Block{{Type: "text", Text: text}}}
	msgs := append(append([]client.Message(nil), s.turns...), user)

	resp, err := s.api.Chat(ctx, client.ChatRequest{Messages: msgs, System: s.system})
	if err != nil {
		return "", err
	}

	answer := resp.Text()
	s.turns = append(msgs, client.Message{
		Role:    "assistant",
		Content: []client.Block{{Type: "text", Text: answer}},
	})
	return answer, nil
}

// Reset forgets the conversation.
func (s *ChatService) Reset() {
	s.mu.Lock()
	s.turns = nil
	s.mu.Unlock()
}

// Len reports the number of messages in the conversation.
func (s *ChatService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
