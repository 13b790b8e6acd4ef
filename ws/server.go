// Package ws is the realtime gateway: it upgrades connections, authenticates
// them, and shuttles named events between clients and the chat service.
package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"canopy-realtime/auth"
	"canopy-realtime/contract"
	"canopy-realtime/domain"
	"canopy-realtime/errors"
)

type Gateway struct {
	log        *slog.Logger
	tokens     *auth.TokenMaker
	service    contract.IChatService
	dispatcher *Dispatcher
	sinkBuffer int
	upgrader   websocket.Upgrader
}

func NewGateway(log *slog.Logger, tokens *auth.TokenMaker, service contract.IChatService,
	dispatcher *Dispatcher, sinkBuffer int, allowedOrigins []string) *Gateway {
	return &Gateway{
		log:        log,
		tokens:     tokens,
		service:    service,
		dispatcher: dispatcher,
		sinkBuffer: sinkBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker admits requests without an Origin header (non-browser
// clients) and browser requests from the configured origins. An empty
// allow-list admits everything.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Handle upgrades the request and walks the connection through its lifecycle:
// authenticate, register, pump. Authentication and registration failures are
// terminal: the error event is written and the connection closed before it
// ever joins the directory.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	user, err := g.authenticate(r)
	if err != nil {
		g.log.Warn("Rejecting unauthenticated connection", "remote", r.RemoteAddr, "error", err)
		g.terminate(conn, errors.NewUnauthorized(errors.KindAuth, "Socket connected without authenticated user"))
		return
	}

	sink := NewClientSink(g.sinkBuffer)
	if err := g.service.Connect(user, sink); err != nil {
		g.log.Error("Failed to register connection", "user_id", user.ID, "error", err)
		g.terminate(conn, errors.NewInternal(errors.KindConnection, "Failed to add user to online list"))
		return
	}

	client := newClient(g.log, conn, user, sink, g.dispatcher, g.service)
	go client.writePump()
	go client.readPump()
}

func (g *Gateway) authenticate(r *http.Request) (domain.User, error) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return domain.User{}, err
	}
	return g.tokens.Validate(cookie.Value)
}

func (g *Gateway) terminate(conn *websocket.Conn, terminal *errors.Error) {
	channel, reply := errors.ReplyFor(terminal, terminal.Kind)
	_ = conn.WriteJSON(outEnvelope{Event: channel, Data: reply})
	_ = conn.Close()
}
