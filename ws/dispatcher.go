package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"canopy-realtime/contract"
	"canopy-realtime/domain"
	"canopy-realtime/domain/event"
	"canopy-realtime/errors"
)

type handlerFunc func(user domain.User, origin contract.EventSink, data json.RawMessage) error

// Dispatcher routes inbound frames to their handler through a closed table
// built once at construction. Handlers validate, then delegate to the chat
// service; a validation failure becomes a structured error reply to the
// originating connection and never crosses the dispatch boundary as a panic
// or a dropped connection.
type Dispatcher struct {
	log      *slog.Logger
	service  contract.IChatService
	validate *validator.Validate
	handlers map[string]handlerFunc
}

func NewDispatcher(log *slog.Logger, service contract.IChatService) *Dispatcher {
	d := &Dispatcher{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
	d.handlers = map[string]handlerFunc{
		event.NewMessage:  d.onNewMessage,
		event.StartTyping: d.typingHandler(event.StartTyping),
		event.StopTyping:  d.typingHandler(event.StopTyping),
		event.ChatJoined:  d.onChatJoined,
		event.ChatLeaved:  d.onChatLeaved,
	}
	return d
}

// Dispatch handles one inbound frame from an authenticated connection.
func (d *Dispatcher) Dispatch(user domain.User, origin contract.EventSink, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		d.log.Debug("Dropping unreadable frame", "user_id", user.ID, "error", err)
		return
	}

	handler, ok := d.handlers[envelope.Event]
	if !ok {
		d.log.Debug("Dropping unknown event", "user_id", user.ID, "event", envelope.Event)
		return
	}

	if err := handler(user, origin, envelope.Data); err != nil {
		channel, reply := errors.ReplyFor(err, kindFor(envelope.Event))
		_ = origin.Emit(channel, reply)
	}
}

func kindFor(eventName string) errors.Kind {
	switch eventName {
	case event.NewMessage:
		return errors.KindMessage
	case event.StartTyping, event.StopTyping:
		return errors.KindTyping
	case event.ChatJoined:
		return errors.KindChatJoin
	case event.ChatLeaved:
		return errors.KindChatLeave
	default:
		return errors.KindConnection
	}
}

func (d *Dispatcher) onNewMessage(user domain.User, origin contract.EventSink, data json.RawMessage) error {
	var payload newMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.NewBadRequest(errors.KindMessage, "Invalid message data provided")
	}
	if err := d.validate.Struct(payload); err != nil {
		return errors.NewBadRequest(errors.KindMessage, "Invalid message data provided")
	}

	d.service.PostMessage(user, origin, payload.ChatID, payload.Members, payload.Message)
	return nil
}

func (d *Dispatcher) typingHandler(name string) handlerFunc {
	return func(user domain.User, origin contract.EventSink, data json.RawMessage) error {
		var payload typingPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return errors.NewBadRequest(errors.KindTyping, "Invalid typing data")
		}
		if err := d.validate.Struct(payload); err != nil {
			return errors.NewBadRequest(errors.KindTyping, "Invalid typing data")
		}

		d.service.Typing(name, origin, payload.ChatID, payload.Members)
		return nil
	}
}

func (d *Dispatcher) onChatJoined(user domain.User, origin contract.EventSink, data json.RawMessage) error {
	var payload chatPresencePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.NewBadRequest(errors.KindChatJoin, "Invalid chat join data")
	}
	if err := d.validate.Struct(payload); err != nil {
		return errors.NewBadRequest(errors.KindChatJoin, "Invalid chat join data")
	}

	d.service.JoinChat(payload.UserID, payload.Members)
	return nil
}

func (d *Dispatcher) onChatLeaved(user domain.User, origin contract.EventSink, data json.RawMessage) error {
	var payload chatPresencePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.NewBadRequest(errors.KindChatLeave, "Invalid chat leave data")
	}
	if err := d.validate.Struct(payload); err != nil {
		return errors.NewBadRequest(errors.KindChatLeave, "Invalid chat leave data")
	}

	d.service.LeaveChat(payload.UserID, payload.Members)
	return nil
}
