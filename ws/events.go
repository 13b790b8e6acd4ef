package ws

import "encoding/json"

// Envelope is the frame format on the realtime channel: a named event and its
// payload. Inbound frames keep the payload raw until the dispatch table has
// picked a handler for the event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Inbound payloads. Validation runs before any side effect; a frame that
// fails these tags is answered with a 400-coded structured error and nothing
// else happens.
type newMessagePayload struct {
	ChatID  string   `json:"chatId" validate:"required"`
	Members []string `json:"members" validate:"required,min=1"`
	Message string   `json:"message" validate:"required"`
}

type typingPayload struct {
	ChatID  string   `json:"chatId" validate:"required"`
	Members []string `json:"members" validate:"required,min=1"`
}

type chatPresencePayload struct {
	UserID  string   `json:"userId" validate:"required"`
	Members []string `json:"members" validate:"required,min=1"`
}
