package domain

import "time"

// ChatSender identifies who wrote a chat message.
type ChatSender string

const (
	SenderUser      ChatSender = "user"
	SenderAssistant ChatSender = "assistant"
)

// ChatMessage is an ephemeral conversation turn. It is never persisted.
type ChatMessage struct {
	ID        string
	Sender    ChatSender
	Content   string
	Timestamp time.Time
}

// Classification is the routing decision for a ticket description.
type Classification struct {
	Category     TicketCategory
	Priority     TicketPriority
	AssignedTeam string
}
