package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Vatanesh/sbg-skribbl/internal/game"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/messaging"
)

// Envelope is one session event crossing process boundaries. Exactly one of
// RoomID or TargetID is set: room-scoped deliveries carry RoomID (optionally
// narrowed by ExceptID), client-directed deliveries carry TargetID.
type Envelope struct {
	Origin   string     `json:"origin"`
	RoomID   string     `json:"roomId,omitempty"`
	TargetID string     `json:"targetId,omitempty"`
	ExceptID string     `json:"exceptId,omitempty"`
	Event    game.Event `json:"event"`
}

// LocalSink is the hub's local-delivery surface, receiving envelopes that
// originated on other processes.
type LocalSink interface {
	DeliverRoom(roomID, exceptID string, event game.Event)
	DeliverClient(clientID string, event game.Event)
}

// Bridge relays hub broadcasts between processes over the fanout exchange.
// Each bridge tags outgoing envelopes with its origin id and drops its own
// envelopes on receipt, so local deliveries are never duplicated.
type Bridge struct {
	rabbitmq *messaging.RabbitMQ
	origin   string
	logger   zerolog.Logger
}

func NewBridge(rabbitmq *messaging.RabbitMQ) *Bridge {
	return &Bridge{
		rabbitmq: rabbitmq,
		origin:   uuid.NewString(),
		logger:   log.With().Str("component", "bridge").Logger(),
	}
}

// Publish ships one envelope to the other processes. Best-effort: gameplay
// already delivered locally, so a broker hiccup only affects remote rooms.
func (b *Bridge) Publish(env Envelope) {
	env.Origin = b.origin

	body, err := json.Marshal(env)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to marshal envelope")
		return
	}

	if err := b.rabbitmq.PublishBroadcast(context.Background(), body); err != nil {
		b.logger.Error().Err(err).Msg("failed to publish envelope")
	}
}

// Listen routes incoming envelopes from other processes into the sink.
func (b *Bridge) Listen(sink LocalSink) error {
	return b.rabbitmq.ConsumeBroadcast(func(_ context.Context, body []byte) {
		var env Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			b.logger.Error().Err(err).Msg("failed to unmarshal envelope")
			return
		}
		if env.Origin == b.origin {
			return
		}

		switch {
		case env.TargetID != "":
			sink.DeliverClient(env.TargetID, env.Event)
		case env.RoomID != "":
			sink.DeliverRoom(env.RoomID, env.ExceptID, env.Event)
		}
	})
}
