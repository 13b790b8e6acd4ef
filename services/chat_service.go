// Package services holds the domain actions behind the realtime gateway.
// The dispatcher validates and routes; the decisions about who hears what
// live here.
package services

import (
	"log/slog"

	"github.com/samber/lo"

	"canopy-realtime/contract"
	"canopy-realtime/domain"
	"canopy-realtime/domain/event"
	"canopy-realtime/repositories"
	"canopy-realtime/runtime/workers"
)

type ChatService struct {
	log        *slog.Logger
	registry   contract.IRegistry
	store      *workers.StoreWorker
	repository repositories.IMessageRepository
}

func NewChatService(log *slog.Logger, registry contract.IRegistry,
	store *workers.StoreWorker, repository repositories.IMessageRepository) *ChatService {
	return &ChatService{log: log, registry: registry, store: store, repository: repository}
}

// Connect registers an authenticated connection and broadcasts the full
// online-user set to every connection, the new one included. Full state, not
// a delta: late joiners and existing clients converge on the same view
// without a separate sync protocol.
func (s *ChatService) Connect(user domain.User, sink contract.EventSink) error {
	s.registry.Register(user.ID, sink)
	s.registry.Broadcast(event.OnlineUsers, s.registry.Online())
	s.log.Debug("User connected", "user_id", user.ID)
	return nil
}

// Disconnect removes the session entry and rebroadcasts the online-user set
// to the remaining connections. Best effort: the leaving connection is
// already gone and must not hold up anyone else's cleanup.
func (s *ChatService) Disconnect(user domain.User) {
	s.registry.Deregister(user.ID)
	s.registry.BroadcastExcept(user.ID, event.OnlineUsers, s.registry.Online())
	s.log.Debug("User disconnected", "user_id", user.ID)
}

// PostMessage fans a message out to the connected chat members and hands it
// to the persistence bridge. The emission does not wait for the write;
// a message can be seen live and still fail to persist.
func (s *ChatService) PostMessage(sender domain.User, origin contract.EventSink,
	chatID string, members []string, content string) {
	message := domain.NewMessage(sender, chatID, content)
	payload := event.MessagePayload{ChatID: chatID, Message: message}
	alert := event.AlertPayload{ChatID: chatID}

	for _, sink := range s.registry.Resolve(members) {
		_ = sink.Emit(event.NewMessage, payload)
		_ = sink.Emit(event.NewMessageAlert, alert)
	}

	s.store.Enqueue(workers.StoreRequest{
		ChatID:  chatID,
		Sender:  sender.ID,
		Content: content,
		Reply:   origin,
	})
}

// Typing relays a typing indicator to the connected chat members, excluding
// the connection it came from.
func (s *ChatService) Typing(name string, origin contract.EventSink, chatID string, members []string) {
	payload := event.TypingPayload{ChatID: chatID}
	for _, sink := range s.registry.Resolve(members) {
		if sink == origin {
			continue
		}
		_ = sink.Emit(name, payload)
	}
}

// JoinChat marks a user online via an explicit join signal and shares the
// updated online-user set with the connected chat members only.
func (s *ChatService) JoinChat(userID string, members []string) {
	s.registry.MarkJoined(userID)
	online := s.registry.Online()
	for _, sink := range s.registry.Resolve(members) {
		_ = sink.Emit(event.OnlineUsers, online)
	}
}

// LeaveChat clears the join signal and shares the updated online-user set
// with the connected chat members only.
func (s *ChatService) LeaveChat(userID string, members []string) {
	s.registry.MarkLeft(userID)
	online := s.registry.Online()
	for _, sink := range s.registry.Resolve(members) {
		_ = sink.Emit(event.OnlineUsers, online)
	}
}

// History reads persisted messages for a chat, newest first.
func (s *ChatService) History(chatID string, cursor *string) ([]domain.Message, *string, error) {
	stored, next, err := s.repository.GetMessages(chatID, cursor)
	if err != nil {
		return nil, nil, err
	}
	return fromStoredMessages(stored), next, nil
}

// Display names are owned by the authentication subsystem; history only
// carries the durable sender identity.
func fromStoredMessages(messages []repositories.StoredMessage) []domain.Message {
	return lo.Map(messages, func(item repositories.StoredMessage, _ int) domain.Message {
		return domain.Message{
			ID:        item.ID.String(),
			Content:   item.Content,
			Sender:    domain.User{ID: item.Sender},
			ChatID:    item.ChatID,
			CreatedAt: item.At,
		}
	})
}
