package ws

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"canopy-realtime/domain"
	"canopy-realtime/errors"
	"canopy-realtime/mocks"
)

func TestDispatch_NewMessageReachesService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	serviceMock := mocks.NewMockIChatService(ctrl)
	sinkMock := mocks.NewMockEventSink(ctrl)

	user := domain.User{ID: "u1", Name: "Alice"}
	serviceMock.EXPECT().
		PostMessage(user, sinkMock, "c1", []string{"u1", "u2"}, "hi").
		Times(1)

	d := NewDispatcher(slog.Default(), serviceMock)
	frame := []byte(`{"event":"new-message","data":{"chatId":"c1","members":["u1","u2"],"message":"hi"}}`)
	d.Dispatch(user, sinkMock, frame)
}

func TestDispatch_TypingEventsCarryTheirName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	serviceMock := mocks.NewMockIChatService(ctrl)
	sinkMock := mocks.NewMockEventSink(ctrl)

	user := domain.User{ID: "u1"}
	serviceMock.EXPECT().Typing("start-typing", sinkMock, "c1", []string{"u2"}).Times(1)
	serviceMock.EXPECT().Typing("stop-typing", sinkMock, "c1", []string{"u2"}).Times(1)

	d := NewDispatcher(slog.Default(), serviceMock)
	d.Dispatch(user, sinkMock, []byte(`{"event":"start-typing","data":{"chatId":"c1","members":["u2"]}}`))
	d.Dispatch(user, sinkMock, []byte(`{"event":"stop-typing","data":{"chatId":"c1","members":["u2"]}}`))
}

func TestDispatch_ChatPresenceEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	serviceMock := mocks.NewMockIChatService(ctrl)
	sinkMock := mocks.NewMockEventSink(ctrl)

	user := domain.User{ID: "u1"}
	serviceMock.EXPECT().JoinChat("u3", []string{"u1", "u3"}).Times(1)
	serviceMock.EXPECT().LeaveChat("u3", []string{"u1", "u3"}).Times(1)

	d := NewDispatcher(slog.Default(), serviceMock)
	d.Dispatch(user, sinkMock, []byte(`{"event":"chat-joined","data":{"userId":"u3","members":["u1","u3"]}}`))
	d.Dispatch(user, sinkMock, []byte(`{"event":"chat-leaved","data":{"userId":"u3","members":["u1","u3"]}}`))
}

func TestDispatch_ValidationFailureAnswersOnErrorChannel(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		channel string
		message string
	}{
		{
			name:    "new-message without members",
			frame:   `{"event":"new-message","data":{"chatId":"c1","message":"hi"}}`,
			channel: "MESSAGE_ERROR",
			message: "Invalid message data provided",
		},
		{
			name:    "new-message with empty message",
			frame:   `{"event":"new-message","data":{"chatId":"c1","members":["u2"],"message":""}}`,
			channel: "MESSAGE_ERROR",
			message: "Invalid message data provided",
		},
		{
			name:    "start-typing without chatId",
			frame:   `{"event":"start-typing","data":{"members":["u2"]}}`,
			channel: "TYPING_ERROR",
			message: "Invalid typing data",
		},
		{
			name:    "chat-joined without userId",
			frame:   `{"event":"chat-joined","data":{"members":["u2"]}}`,
			channel: "CHAT_JOIN_ERROR",
			message: "Invalid chat join data",
		},
		{
			name:    "chat-leaved with empty members",
			frame:   `{"event":"chat-leaved","data":{"userId":"u3","members":[]}}`,
			channel: "CHAT_LEAVE_ERROR",
			message: "Invalid chat leave data",
		},
		{
			name:    "new-message with non-object data",
			frame:   `{"event":"new-message","data":"not an object"}`,
			channel: "MESSAGE_ERROR",
			message: "Invalid message data provided",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			// No service expectation: a rejected frame must not reach it
			serviceMock := mocks.NewMockIChatService(ctrl)
			sinkMock := mocks.NewMockEventSink(ctrl)

			sinkMock.EXPECT().
				Emit(tt.channel, errors.Reply{
					Message:    tt.message,
					StatusCode: http.StatusBadRequest,
				}).
				Return(nil).
				Times(1)

			d := NewDispatcher(slog.Default(), serviceMock)
			d.Dispatch(domain.User{ID: "u1"}, sinkMock, []byte(tt.frame))
		})
	}
}

func TestDispatch_UnknownEventIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	serviceMock := mocks.NewMockIChatService(ctrl)
	sinkMock := mocks.NewMockEventSink(ctrl)

	d := NewDispatcher(slog.Default(), serviceMock)
	d.Dispatch(domain.User{ID: "u1"}, sinkMock, []byte(`{"event":"made-up","data":{}}`))
}

func TestDispatch_UnreadableFrameIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	serviceMock := mocks.NewMockIChatService(ctrl)
	sinkMock := mocks.NewMockEventSink(ctrl)

	d := NewDispatcher(slog.Default(), serviceMock)
	d.Dispatch(domain.User{ID: "u1"}, sinkMock, []byte(`{not json`))
}

func TestKindFor_CoversEveryInboundEvent(t *testing.T) {
	req := require.New(t)
	req.Equal(errors.KindMessage, kindFor("new-message"))
	req.Equal(errors.KindTyping, kindFor("start-typing"))
	req.Equal(errors.KindTyping, kindFor("stop-typing"))
	req.Equal(errors.KindChatJoin, kindFor("chat-joined"))
	req.Equal(errors.KindChatLeave, kindFor("chat-leaved"))
	req.Equal(errors.KindConnection, kindFor("anything-else"))
}
