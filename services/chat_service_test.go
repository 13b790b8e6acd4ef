package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"canopy-realtime/domain"
	"canopy-realtime/domain/event"
	"canopy-realtime/errors"
	"canopy-realtime/mocks"
	"canopy-realtime/repositories"
	"canopy-realtime/runtime"
	"canopy-realtime/runtime/workers"
)

type emission struct {
	event   string
	payload any
}

type fakeSink struct {
	mu        sync.Mutex
	emissions []emission
}

func (s *fakeSink) Emit(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emissions = append(s.emissions, emission{event: event, payload: payload})
	return nil
}

func (s *fakeSink) byEvent(name string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payloads []any
	for _, e := range s.emissions {
		if e.event == name {
			payloads = append(payloads, e.payload)
		}
	}
	return payloads
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emissions)
}

func newTestService(t *testing.T, repository repositories.IMessageRepository) (*ChatService, *runtime.Registry, *workers.StoreWorker) {
	t.Helper()
	registry := runtime.NewRegistry()
	store := workers.NewStoreWorker(slog.Default(), repository, 8)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = store.Run(ctx) }()
	return NewChatService(slog.Default(), registry, store, repository), registry, store
}

func TestPostMessage_FanoutAndPersist(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repositoryMock := mocks.NewMockIMessageRepository(ctrl)

	stored := make(chan repositories.StoredMessage, 1)
	repositoryMock.EXPECT().
		StoreMessage(gomock.Any()).
		DoAndReturn(func(message repositories.StoredMessage) error {
			stored <- message
			return nil
		}).
		Times(1)

	service, registry, _ := newTestService(t, repositoryMock)
	sinkA := &fakeSink{}
	sinkB := &fakeSink{}
	registry.Register("u1", sinkA)
	registry.Register("u2", sinkB)

	sender := domain.User{ID: "u1", Name: "Alice"}
	service.PostMessage(sender, sinkA, "c1", []string{"u1", "u2", "u3-offline"}, "hi")

	// Exactly two emissions per resolved connection
	for _, sink := range []*fakeSink{sinkA, sinkB} {
		messages := sink.byEvent(event.NewMessage)
		req.Len(messages, 1)
		payload := messages[0].(event.MessagePayload)
		req.Equal("c1", payload.ChatID)
		req.Equal("hi", payload.Message.Content)
		req.Equal("u1", payload.Message.Sender.ID)
		req.Equal("Alice", payload.Message.Sender.Name)
		req.Equal("c1", payload.Message.ChatID)
		req.NotEmpty(payload.Message.ID)
		req.False(payload.Message.CreatedAt.IsZero())

		alerts := sink.byEvent(event.NewMessageAlert)
		req.Len(alerts, 1)
		req.Equal(event.AlertPayload{ChatID: "c1"}, alerts[0].(event.AlertPayload))
	}

	// Exactly one durable write, carrying the raw triple
	select {
	case message := <-stored:
		req.Equal("c1", message.ChatID)
		req.Equal("u1", message.Sender)
		req.Equal("hi", message.Content)
	case <-time.After(1 * time.Second):
		req.Fail("Message was never persisted")
	}
}

func TestPostMessage_DeliverySurvivesPersistFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repositoryMock := mocks.NewMockIMessageRepository(ctrl)
	repositoryMock.EXPECT().
		StoreMessage(gomock.Any()).
		Return(fmt.Errorf("disk on fire")).
		Times(1)

	service, registry, _ := newTestService(t, repositoryMock)
	sinkA := &fakeSink{}
	sinkB := &fakeSink{}
	registry.Register("u1", sinkA)
	registry.Register("u2", sinkB)

	service.PostMessage(domain.User{ID: "u1", Name: "Alice"}, sinkA, "c1", []string{"u1", "u2"}, "hi")

	// Recipient got the message even though the write fails
	req.Len(sinkB.byEvent(event.NewMessage), 1)
	req.Len(sinkB.byEvent(event.NewMessageAlert), 1)

	// The sender is told about the failed write, nobody else
	req.Eventually(func() bool {
		return len(sinkA.byEvent(string(errors.KindMessage))) == 1
	}, time.Second, 10*time.Millisecond)
	reply := sinkA.byEvent(string(errors.KindMessage))[0].(errors.Reply)
	req.Equal(http.StatusInternalServerError, reply.StatusCode)
	req.False(reply.Success)
	req.Empty(sinkB.byEvent(string(errors.KindMessage)))
}

func TestConnect_BroadcastsFullOnlineSet(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	service, _, _ := newTestService(t, mocks.NewMockIMessageRepository(ctrl))

	sinkA := &fakeSink{}
	sinkB := &fakeSink{}
	req.NoError(service.Connect(domain.User{ID: "u1", Name: "Alice"}, sinkA))
	req.NoError(service.Connect(domain.User{ID: "u2", Name: "Bob"}, sinkB))

	// Full-state broadcast goes to everyone, the new connection included
	onlineA := sinkA.byEvent(event.OnlineUsers)
	req.Len(onlineA, 2)
	req.Equal([]string{"u1"}, onlineA[0].([]string))
	req.Equal([]string{"u1", "u2"}, onlineA[1].([]string))

	onlineB := sinkB.byEvent(event.OnlineUsers)
	req.Len(onlineB, 1)
	req.Equal([]string{"u1", "u2"}, onlineB[0].([]string))
}

func TestDisconnect_RebroadcastsToRemaining(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	service, registry, _ := newTestService(t, mocks.NewMockIMessageRepository(ctrl))

	sinkA := &fakeSink{}
	sinkB := &fakeSink{}
	req.NoError(service.Connect(domain.User{ID: "u1", Name: "Alice"}, sinkA))
	req.NoError(service.Connect(domain.User{ID: "u2", Name: "Bob"}, sinkB))
	before := sinkA.count()

	service.Disconnect(domain.User{ID: "u1", Name: "Alice"})

	// The leaving connection hears nothing, the rest converge on the new set
	req.Equal(before, sinkA.count())
	online := sinkB.byEvent(event.OnlineUsers)
	req.Equal([]string{"u2"}, online[len(online)-1].([]string))
	req.Empty(registry.Resolve([]string{"u1"}))
}

func TestTyping_ExcludesSender(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	service, registry, _ := newTestService(t, mocks.NewMockIMessageRepository(ctrl))

	sinkA := &fakeSink{}
	sinkB := &fakeSink{}
	registry.Register("u1", sinkA)
	registry.Register("u2", sinkB)

	service.Typing(event.StartTyping, sinkA, "c1", []string{"u1", "u2"})

	req.Empty(sinkA.byEvent(event.StartTyping))
	typing := sinkB.byEvent(event.StartTyping)
	req.Len(typing, 1)
	req.Equal(event.TypingPayload{ChatID: "c1"}, typing[0].(event.TypingPayload))
}

func TestJoinAndLeaveChat_SharesOnlineSetWithMembers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	service, registry, _ := newTestService(t, mocks.NewMockIMessageRepository(ctrl))

	sinkA := &fakeSink{}
	registry.Register("u1", sinkA)

	// u3 has no connection at all, a join signal alone puts them online
	service.JoinChat("u3", []string{"u1"})
	online := sinkA.byEvent(event.OnlineUsers)
	req.Len(online, 1)
	req.Equal([]string{"u1", "u3"}, online[0].([]string))

	service.LeaveChat("u3", []string{"u1"})
	online = sinkA.byEvent(event.OnlineUsers)
	req.Len(online, 2)
	req.Equal([]string{"u1"}, online[1].([]string))
}

func TestHistory_MapsStoredMessages(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repositoryMock := mocks.NewMockIMessageRepository(ctrl)

	id := uuid.New()
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	cursor := "next-page"
	repositoryMock.EXPECT().
		GetMessages("c1", nil).
		Return([]repositories.StoredMessage{
			{ID: id, ChatID: "c1", Sender: "u1", Content: "hi", At: at},
		}, &cursor, nil).
		Times(1)

	service, _, _ := newTestService(t, repositoryMock)

	messages, next, err := service.History("c1", nil)
	req.NoError(err)
	req.Equal(&cursor, next)
	req.Len(messages, 1)
	req.Equal(domain.Message{
		ID:        id.String(),
		Content:   "hi",
		Sender:    domain.User{ID: "u1"},
		ChatID:    "c1",
		CreatedAt: at,
	}, messages[0])
}
