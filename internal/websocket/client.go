package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xelth-com/wooassist/internal/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Raw product payloads can be long.
	maxMessageSize = 512 * 1024 // 512KB
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message types on the wire
const (
	TypeMessage = "message"
	TypeReply   = "reply"
	TypeError   = "error"
)

// Inbound is a frame sent by the peer
type Inbound struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	MsgID string `json:"msgId,omitempty"`
}

// Outbound is a frame sent to the peer
type Outbound struct {
	Type           string         `json:"type"`
	MsgID          string         `json:"msgId,omitempty"`
	ConversationID string         `json:"conversationId,omitempty"`
	Text           string         `json:"text,omitempty"`
	Error          string         `json:"error,omitempty"`
	Debug          map[string]any `json:"debug,omitempty"`
}

// HandleFunc answers one chat message of the connection's session
type HandleFunc func(ctx context.Context, text string) Outbound

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Closed once the connection is finished or replaced.
	closed    chan struct{}
	closeOnce sync.Once

	// SessionKey is tenant:<id>:conv:<conversationId>
	SessionKey     string
	conversationID string

	handle HandleFunc
	log    *logger.Logger
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	case <-c.closed:
		return false
	}
}

// readPump handles the peer's messages one at a time, so a session never
// has two messages in flight on this connection.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "session", c.SessionKey, "error", err)
			}
			return
		}

		var msg Inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			c.SendJSON(Outbound{Type: TypeError, Error: "frames must be JSON objects"})
			continue
		}
		if msg.Type != "" && msg.Type != TypeMessage {
			c.SendJSON(Outbound{Type: TypeError, MsgID: msg.MsgID, Error: "unsupported frame type " + msg.Type})
			continue
		}
		if strings.TrimSpace(msg.Text) == "" {
			c.SendJSON(Outbound{Type: TypeError, MsgID: msg.MsgID, Error: "message is required"})
			continue
		}

		out := c.handle(ctx, msg.Text)
		out.MsgID = msg.MsgID
		out.ConversationID = c.conversationID
		if !c.SendJSON(out) {
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// SendJSON queues a JSON message; false once the client is closed
func (c *Client) SendJSON(v any) bool {
	msg, err := json.Marshal(v)
	if err != nil {
		c.log.Error("failed to marshal websocket message", "error", err)
		return false
	}
	return c.enqueue(msg)
}

// ServeWs upgrades the request and serves the session until the peer leaves
// or a newer connection for the same session takes over.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, sessionKey, conversationID string, handle HandleFunc) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, 256),
		closed:         make(chan struct{}),
		SessionKey:     sessionKey,
		conversationID: conversationID,
		handle:         handle,
		log:            hub.log,
	}
	client.hub.register <- client

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-client.closed
		cancel()
	}()

	go client.writePump()
	go client.readPump(ctx)
}
