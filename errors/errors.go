package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var ErrWorkerPanic = fmt.Errorf("worker panic")

// Kind names the error event channel a structured error is emitted on.
type Kind string

const (
	KindAuth       Kind = "AUTH_ERROR"
	KindConnection Kind = "CONNECTION_ERROR"
	KindMessage    Kind = "MESSAGE_ERROR"
	KindTyping     Kind = "TYPING_ERROR"
	KindChatJoin   Kind = "CHAT_JOIN_ERROR"
	KindChatLeave  Kind = "CHAT_LEAVE_ERROR"
)

// Error is the tagged variant carried across the dispatch boundary.
// StatusCode mirrors HTTP semantics: 400 malformed input, 401 auth,
// 500 internal failure.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%d]: %s", e.Kind, e.StatusCode, e.Message)
}

func New(kind Kind, message string, statusCode int) *Error {
	return &Error{Kind: kind, Message: message, StatusCode: statusCode}
}

func NewBadRequest(kind Kind, message string) *Error {
	return New(kind, message, http.StatusBadRequest)
}

func NewUnauthorized(kind Kind, message string) *Error {
	return New(kind, message, http.StatusUnauthorized)
}

func NewInternal(kind Kind, message string) *Error {
	return New(kind, message, http.StatusInternalServerError)
}

// Reply is the wire shape of a structured error event.
type Reply struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ReplyFor converts any error into the event channel and payload to emit
// back to the originating connection. Untagged errors never leak their
// internals to the client.
func ReplyFor(err error, fallback Kind) (string, Reply) {
	var tagged *Error
	if stderrors.As(err, &tagged) {
		return string(tagged.Kind), Reply{Message: tagged.Message, StatusCode: tagged.StatusCode}
	}
	return string(fallback), Reply{Message: "Internal Server Error", StatusCode: http.StatusInternalServerError}
}
