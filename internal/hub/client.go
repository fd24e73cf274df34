package hub

import (
	"chatline-server/internal/domain"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Client is one live transport session: the mediator between a WebSocket
// connection and the Hub. It carries a denormalized snapshot of the user
// taken at connect time and is never persisted.
type Client struct {
	SocketID string
	UserID   uuid.UUID
	Username string
	Avatar   string

	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	limiter *rate.Limiter

	// ctx is cancelled on disconnect so in-flight storage calls for this
	// connection stop with it.
	ctx    context.Context
	cancel context.CancelFunc
}

// readPump reads frames from the WebSocket and dispatches them one at a time
// in arrival order. Each connection has its own readPump goroutine, so one
// connection's storage I/O never blocks another's events.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.pongTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.pongTimeout))
		return nil
	})

	for {
		var req domain.WebSocketMessage
		if err := c.Conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("readPump error (user: %s): %v", c.Username, err)
			}
			break
		}

		if !c.limiter.Allow() {
			c.sendError("Too many messages, slow down.")
			continue
		}

		c.Hub.Dispatch(c, req)
	}
}

// writePump writes messages from the Send channel to the WebSocket and keeps
// the connection alive with periodic pings. A missed pong trips the read
// deadline in readPump, which takes the normal disconnect path.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.Hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("writePump error (user: %s): %v", c.Username, err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

const writeWait = 10 * time.Second

// send marshals an event and enqueues it for this connection. The enqueue is
// non-blocking: a full channel means the client stopped draining, and the
// frame is dropped rather than stalling the caller.
func (c *Client) send(msg domain.WebSocketMessage) {
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Could not marshal %s event for %s: %v", msg.Type, c.Username, err)
		return
	}
	select {
	case c.Send <- jsonMsg:
	default:
		log.Printf("Dropping %s event for %s (send buffer full)", msg.Type, c.Username)
	}
}

// sendError surfaces a failure to this connection only.
func (c *Client) sendError(content string) {
	c.send(domain.WebSocketMessage{
		Type: domain.EventError,
		Payload: domain.SystemPayload{
			Content:   content,
			Timestamp: time.Now(),
		},
	})
}
