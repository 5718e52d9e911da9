package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Vatanesh/sbg-skribbl/internal/game"
)

// InboundMessage is the envelope clients send: a type tag plus a payload the
// dispatcher decodes per type.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client is one connected player. The connection id doubles as the player
// identity for its lifetime. RoomID is set once the client joins a room.
type Client struct {
	conn    *connWrapper
	Message chan game.Event
	ID      string

	mu     sync.Mutex
	roomID string
}

func NewClient(conn *websocket.Conn, id string) *Client {
	return &Client{
		conn:    newConnWrapper(conn),
		Message: make(chan game.Event, 64), // buffered to avoid dead-locks on slow clients
		ID:      id,
	}
}

func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// ReadMessages pumps inbound envelopes into the gateway until the connection
// drops, then runs the disconnect path.
func (c *Client) ReadMessages(gw *Gateway) {
	defer func() {
		gw.disconnect(c)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				gw.logger.Warn().Err(err).Str("client", c.ID).Msg("ws read error")
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			gw.logger.Debug().Err(err).Str("client", c.ID).Msg("malformed inbound message")
			continue
		}

		gw.dispatch(c, msg)
	}
}

// WriteMessages drains the outbound channel onto the wire.
func (c *Client) WriteMessages(gw *Gateway) {
	defer func() {
		_ = c.conn.Close()
	}()

	for event := range c.Message {
		if err := c.conn.WriteJSON(event); err != nil {
			gw.logger.Warn().Err(err).Str("client", c.ID).Msg("ws write error")
			break
		}
	}
}
