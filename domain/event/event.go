// Package event enumerates the named events exchanged with clients and the
// payload shapes emitted on them.
package event

import "canopy-realtime/domain"

// Closed set of event names on the realtime channel. Client and server agree
// on these strings; adding one means adding a dispatch-table entry.
const (
	NewMessage      = "new-message"
	NewMessageAlert = "new-message-alert"
	StartTyping     = "start-typing"
	StopTyping      = "stop-typing"
	ChatJoined      = "chat-joined"
	ChatLeaved      = "chat-leaved"
	OnlineUsers     = "online-users"
)

type MessagePayload struct {
	ChatID  string         `json:"chatId"`
	Message domain.Message `json:"message"`
}

type AlertPayload struct {
	ChatID string `json:"chatId"`
}

type TypingPayload struct {
	ChatID string `json:"chatId"`
}
