package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is the realtime representation of a chat message, built fresh for
// each emission. Its ID is ephemeral and only used for client-side display;
// the durable record gets its own identifier from storage.
type Message struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	Sender    User      `json:"sender"`
	ChatID    string    `json:"chat"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewMessage(sender User, chatID, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		ChatID:    chatID,
		CreatedAt: time.Now().UTC(),
	}
}
