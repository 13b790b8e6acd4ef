package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"canopy-realtime/contract"
	"canopy-realtime/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 8192
)

// Client is one authenticated websocket connection. The read pump feeds the
// dispatcher; the write pump drains the sink. Events from a single client are
// handled in read order, which is the only ordering guarantee offered.
type Client struct {
	log        *slog.Logger
	conn       *websocket.Conn
	user       domain.User
	sink       *ClientSink
	dispatcher *Dispatcher
	service    contract.IChatService
	done       chan struct{}
}

func newClient(log *slog.Logger, conn *websocket.Conn, user domain.User,
	sink *ClientSink, dispatcher *Dispatcher, service contract.IChatService) *Client {
	return &Client{
		log:        log,
		conn:       conn,
		user:       user,
		sink:       sink,
		dispatcher: dispatcher,
		service:    service,
		done:       make(chan struct{}),
	}
}

func (c *Client) readPump() {
	defer func() {
		close(c.done)
		// Best-effort cleanup: the connection is already gone, nothing here
		// may block or fail loudly.
		c.service.Disconnect(c.user)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Warn("Unexpected websocket close", "user_id", c.user.ID, "error", err)
			}
			return
		}
		c.dispatcher.Dispatch(c.user, c.sink, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.sink.Frames():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
