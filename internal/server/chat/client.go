package chat

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendQueue      = 32
)

// Authenticator resolves the optional caller of a connection request.
type Authenticator interface {
	Authenticate(r *http.Request) auth.Result
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	once  sync.Once
	name  string
	image string
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// incoming is what clients send; only the text is trusted.
type incoming struct {
	Text string `json:"text"`
}

// Handler upgrades requests on the chat endpoint and attaches them to the
// hub.
type Handler struct {
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, a Authenticator) *Handler {
	return &Handler{
		hub:  hub,
		auth: a,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := h.auth.Authenticate(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn(r.Context(), "chat upgrade failed", "error", err)
		return
	}

	if res.Status == auth.Failed {
		reject(conn, res.Err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendQueue),
		done: make(chan struct{}),
		name: anonymous,
	}
	if res.Status == auth.Authenticated {
		if name := strings.TrimSpace(res.User.DisplayName); name != "" {
			c.name = name
		}
		c.image = res.User.ProfileImageURLs.Original
	}

	if !h.hub.join(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		_ = conn.Close()
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go c.writePump()

	h.hub.Broadcast(ctx, c.message(TypeStatus, "Is now connected"))
	c.readPump(ctx, h.hub)
	h.hub.leave(c)
	h.hub.Broadcast(ctx, c.message(TypeStatus, "disconnected"))
}

func reject(conn *websocket.Conn, err error) {
	appErr := common.ToAppError(err)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(ErrorFrame{
		Type:  TypeError,
		Error: ErrorBody{Code: string(appErr.Code), Message: appErr.Message},
	})
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, appErr.Message))
	_ = conn.Close()
}

func (c *client) message(typ, text string) Message {
	return Message{
		Type:            typ,
		Text:            text,
		Created:         timeNow().UTC(),
		DisplayName:     c.name,
		ProfileImageURL: c.image,
	}
}

func (c *client) readPump(ctx context.Context, hub *Hub) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in incoming
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				hub.logger.Debug(ctx, "chat read failed", "error", err)
			}
			return
		}
		if strings.TrimSpace(in.Text) == "" {
			continue
		}
		hub.Broadcast(ctx, c.message(TypeMessage, in.Text))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.stop()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
