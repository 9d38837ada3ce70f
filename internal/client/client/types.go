package client

import "encoding/json"

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type User struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Block is one content block of a chat message. Only text blocks are built
// by the CLI; other block types in responses are kept in Raw.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type Message struct {
	Role    string  `json:"role"`
	Content []Block `json:"content"`
}

type ChatRequest struct {
	Messages []Message `json:"messages"`
	System   *string   `json:"system,omitempty"`
}

// ChatResponse is the part of the provider's answer the CLI uses. Raw holds
// the full document.
type ChatResponse struct {
	Content    []Block         `json:"content"`
	StopReason string          `json:"stop_reason"`
	Raw        json.RawMessage `json:"-"`
}

// Text joins the text blocks of the answer.
func (r *ChatResponse) Text() string {
	var out string
	for _, b := range r.Content {
		if b.Type != "text" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += b.Text
	}
	return out
}
