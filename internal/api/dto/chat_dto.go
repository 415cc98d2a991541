package dto

import (
	"time"

	"github.com/spec-kit/smart-resolve/internal/conversation"
	"github.com/spec-kit/smart-resolve/internal/domain"
)

// SendMessageRequest payload.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ChatMessageResponse is one conversation turn.
type ChatMessageResponse struct {
	ID        string            `json:"id"`
	Type      domain.ChatSender `json:"type"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
}

// ChatResponse is the conversation state.
type ChatResponse struct {
	Messages       []ChatMessageResponse `json:"messages"`
	ServiceHealth  conversation.Health   `json:"service_health"`
	IsLoading      bool                  `json:"is_loading"`
	CreatingTicket bool                  `json:"is_creating_ticket"`
}

// ChatMessages converts messages, never returning nil.
func ChatMessages(msgs []domain.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ChatMessageResponse{ID: m.ID, Type: m.Sender, Content: m.Content, Timestamp: m.Timestamp})
	}
	return out
}
