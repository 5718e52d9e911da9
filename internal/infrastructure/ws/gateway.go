package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/game"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/metrics"
)

// Inbound event types.
const (
	MsgRoomCreate   = "room:create"
	MsgRoomJoin     = "room:join"
	MsgRoomLeave    = "room:leave"
	MsgRoomGetState = "room:getState"
	MsgGameStart    = "game:start"
	MsgWordSelect   = "word:select"
	MsgChatMessage  = "chat:message"
	MsgStroke       = "stroke"
	MsgStrokeUpdate = "stroke:update"
	MsgUndo         = "undo"
	MsgClear        = "clear"
)

const EventAck = "ack"

// AckPayload answers request-style inbound events. State is only populated
// on room:getState replies.
type AckPayload struct {
	OK     bool   `json:"ok"`
	RoomID string `json:"roomId,omitempty"`
	Error  string `json:"error,omitempty"`
	State  any    `json:"state,omitempty"`
}

type roomRequest struct {
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
}

type startGameRequest struct {
	MaxRounds    int `json:"maxRounds"`
	TurnDuration int `json:"turnDuration"`
}

type wordSelectRequest struct {
	Word string `json:"word"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type undoRequest struct {
	StrokeID string `json:"strokeId"`
}

// Gateway owns the websocket endpoint: it upgrades connections, assigns each
// one an id, and maps inbound envelopes onto session coordinator calls.
type Gateway struct {
	svc      *game.Service
	hub      *Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewGateway(svc *game.Service, hub *Hub) *Gateway {
	return &Gateway{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log.With().Str("component", "gateway").Logger(),
	}
}

// Handle upgrades the request and runs the connection's pumps.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(conn, uuid.NewString())
	g.hub.Register(client)
	g.logger.Debug().Str("client", client.ID).Msg("client connected")

	go client.WriteMessages(g)
	go client.ReadMessages(g)
}

// dispatch routes one inbound envelope. Nothing a client sends may crash the
// handler: undecodable payloads fall back to zero values and the coordinator
// validates from there.
func (g *Gateway) dispatch(c *Client, msg InboundMessage) {
	metrics.InboundEvents.WithLabelValues(msg.Type).Inc()
	ctx := context.Background()

	switch msg.Type {
	case MsgRoomCreate:
		var req roomRequest
		g.decode(msg.Data, &req)
		roomID, err := g.svc.CreateRoom(ctx, c.ID, req.Name, req.RoomID)
		g.ack(c, AckPayload{OK: err == nil, RoomID: roomID, Error: errString(err)})

	case MsgRoomJoin:
		var req roomRequest
		g.decode(msg.Data, &req)
		err := g.svc.JoinRoom(ctx, c.ID, req.Name, req.RoomID)
		roomID := req.RoomID
		if err != nil {
			roomID = ""
		}
		g.ack(c, AckPayload{OK: err == nil, RoomID: roomID, Error: errString(err)})

	case MsgRoomLeave:
		roomID := c.RoomID()
		if roomID == "" {
			g.ack(c, AckPayload{OK: false, Error: domain.ErrNotInRoom.Error()})
			return
		}
		err := g.svc.Leave(ctx, roomID, c.ID)
		g.ack(c, AckPayload{OK: err == nil, Error: errString(err)})

	case MsgRoomGetState:
		roomID := c.RoomID()
		if roomID == "" {
			g.ack(c, AckPayload{OK: false, Error: domain.ErrNotInRoom.Error()})
			return
		}
		snapshot, err := g.svc.State(ctx, roomID, c.ID)
		g.ack(c, AckPayload{OK: err == nil, Error: errString(err), State: snapshot})

	case MsgGameStart:
		roomID := c.RoomID()
		if roomID == "" {
			g.ack(c, AckPayload{OK: false, Error: domain.ErrNotInRoom.Error()})
			return
		}
		var req startGameRequest
		g.decode(msg.Data, &req)
		err := g.svc.StartGame(ctx, roomID, req.MaxRounds, req.TurnDuration)
		g.ack(c, AckPayload{OK: err == nil, Error: errString(err)})

	case MsgWordSelect:
		// Sent without an acknowledgment; unauthorized selections are
		// dropped silently.
		var req wordSelectRequest
		g.decode(msg.Data, &req)
		g.svc.SelectWord(ctx, c.RoomID(), c.ID, req.Word)

	case MsgChatMessage:
		roomID := c.RoomID()
		if roomID == "" {
			g.ack(c, AckPayload{OK: false, Error: domain.ErrNotInRoom.Error()})
			return
		}
		var req chatRequest
		g.decode(msg.Data, &req)
		if err := g.svc.HandleChat(ctx, roomID, c.ID, req.Message); err != nil {
			g.ack(c, AckPayload{OK: false, Error: errString(err)})
		}

	case MsgStroke:
		var stroke domain.Stroke
		g.decode(msg.Data, &stroke)
		if roomID := c.RoomID(); roomID != "" && stroke.ID != "" {
			g.logErr(g.svc.AppendStroke(ctx, roomID, c.ID, &stroke), c, msg.Type)
		}

	case MsgStrokeUpdate:
		var stroke domain.Stroke
		g.decode(msg.Data, &stroke)
		if roomID := c.RoomID(); roomID != "" && stroke.ID != "" {
			g.logErr(g.svc.UpdateStroke(ctx, roomID, &stroke), c, msg.Type)
		}

	case MsgUndo:
		var req undoRequest
		g.decode(msg.Data, &req)
		if roomID := c.RoomID(); roomID != "" && req.StrokeID != "" {
			g.logErr(g.svc.UndoStroke(ctx, roomID, c.ID, req.StrokeID), c, msg.Type)
		}

	case MsgClear:
		if roomID := c.RoomID(); roomID != "" {
			g.logErr(g.svc.ClearCanvas(ctx, roomID, c.ID), c, msg.Type)
		}

	default:
		g.logger.Debug().Str("client", c.ID).Str("type", msg.Type).Msg("unknown inbound event")
	}
}

// disconnect runs the leave path for a dropped connection.
func (g *Gateway) disconnect(c *Client) {
	if roomID := c.RoomID(); roomID != "" {
		if err := g.svc.Leave(context.Background(), roomID, c.ID); err != nil {
			g.logger.Error().Err(err).Str("client", c.ID).Str("room", roomID).Msg("disconnect leave failed")
		}
	}
	g.hub.Unregister(c)
	g.logger.Debug().Str("client", c.ID).Msg("client disconnected")
}

// decode tolerates malformed payloads, leaving the target at zero values.
func (g *Gateway) decode(raw json.RawMessage, v any) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, v); err != nil {
		g.logger.Debug().Err(err).Msg("malformed payload, using defaults")
	}
}

func (g *Gateway) ack(c *Client, payload AckPayload) {
	g.hub.ToClient(c.ID, game.Event{Type: EventAck, Data: payload})
}

func (g *Gateway) logErr(err error, c *Client, msgType string) {
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		g.logger.Error().Err(err).Str("client", c.ID).Str("type", msgType).Msg("inbound event failed")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
