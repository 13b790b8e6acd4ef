//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"canopy-realtime/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live connection able to receive named events.
// Emit must never block the caller: a slow or gone connection is the
// sink's problem, not the fan-out path's.
type EventSink interface {
	Emit(event string, payload any) error
}

// IRegistry is the session directory. It owns the identity -> sink mapping
// and the online-user set derived from sessions and join signals.
type IRegistry interface {
	Register(userID string, sink EventSink)
	Deregister(userID string)
	Resolve(userIDs []string) []EventSink
	MarkJoined(userID string)
	MarkLeft(userID string)
	Online() []string
	Broadcast(event string, payload any)
	BroadcastExcept(userID string, event string, payload any)
}

type IChatService interface {
	Connect(user domain.User, sink EventSink) error
	Disconnect(user domain.User)
	PostMessage(sender domain.User, origin EventSink, chatID string, members []string, content string)
	Typing(event string, origin EventSink, chatID string, members []string)
	JoinChat(userID string, members []string)
	LeaveChat(userID string, members []string)
	History(chatID string, cursor *string) ([]domain.Message, *string, error)
}
