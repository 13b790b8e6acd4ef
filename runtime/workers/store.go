package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"canopy-realtime/contract"
	"canopy-realtime/errors"
	"canopy-realtime/repositories"
)

// StoreRequest carries an accepted message towards durable storage, together
// with the originating connection to notify if the write fails.
type StoreRequest struct {
	ChatID  string
	Sender  string
	Content string
	Reply   contract.EventSink
}

// StoreWorker is the persistence bridge. The fan-out path enqueues and moves
// on; writes happen here, off the emission path. A failed write is reported
// back to the sender as a structured error but the realtime delivery that
// already happened is never retracted.
type StoreWorker struct {
	log        *slog.Logger
	repository repositories.IMessageRepository
	requests   chan StoreRequest
}

func NewStoreWorker(log *slog.Logger, repository repositories.IMessageRepository, bufferSize int) *StoreWorker {
	return &StoreWorker{
		log:        log,
		repository: repository,
		requests:   make(chan StoreRequest, bufferSize),
	}
}

// Enqueue hands a message off to the worker without waiting for the write.
// When the buffer is full the request is dropped and logged rather than
// blocking the emission path.
func (w *StoreWorker) Enqueue(request StoreRequest) {
	select {
	case w.requests <- request:
	default:
		w.log.Warn("Store buffer full, dropping message", "chat_id", request.ChatID)
	}
}

func (w *StoreWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping store worker")
			return nil
		case request := <-w.requests:
			w.store(request)
		}
	}
}

func (w *StoreWorker) store(request StoreRequest) {
	err := w.repository.StoreMessage(repositories.StoredMessage{
		ID:      uuid.New(),
		ChatID:  request.ChatID,
		Sender:  request.Sender,
		Content: request.Content,
		At:      time.Now().UTC(),
	})
	if err == nil {
		return
	}

	w.log.Error("Failed to persist message", "chat_id", request.ChatID, "error", err)
	if request.Reply != nil {
		channel, reply := errors.ReplyFor(
			errors.NewInternal(errors.KindMessage, "Failed to persist message"),
			errors.KindMessage,
		)
		_ = request.Reply.Emit(channel, reply)
	}
}
