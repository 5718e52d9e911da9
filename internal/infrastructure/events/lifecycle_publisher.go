package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/contracts"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/messaging"
)

const publishTimeout = 5 * time.Second

// routingKeys maps lifecycle event types to their exchange routing keys.
var routingKeys = map[domain.GameEventType]string{
	domain.EventRoomCreated:  contracts.EventRoomCreated,
	domain.EventRoomDeleted:  contracts.EventRoomDeleted,
	domain.EventPlayerJoined: contracts.EventPlayerJoined,
	domain.EventPlayerLeft:   contracts.EventPlayerLeft,
	domain.EventGameStarted:  contracts.EventGameStarted,
	domain.EventGameEnded:    contracts.EventGameEnded,
}

// LifecyclePublisher ships room lifecycle events to the game exchange for
// the audit consumer. Publishing is fire-and-forget off the caller's
// goroutine; a dropped audit event never stalls gameplay.
type LifecyclePublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewLifecyclePublisher(rabbitmq *messaging.RabbitMQ) *LifecyclePublisher {
	return &LifecyclePublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *LifecyclePublisher) Publish(_ context.Context, event domain.GameEventType, roomID string, metadata map[string]any) {
	key, ok := routingKeys[event]
	if !ok {
		log.Warn().Str("event", string(event)).Msg("unroutable lifecycle event")
		return
	}

	entry := domain.NewAuditLog(roomID, event, metadata)
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("event", string(event)).Msg("failed to marshal lifecycle event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		err := p.rabbitmq.PublishMessage(ctx, key, contracts.AmqpMessage{
			RoomID: roomID,
			Data:   data,
		})
		if err != nil {
			log.Error().Err(err).Str("event", string(event)).Str("room", roomID).Msg("failed to publish lifecycle event")
		}
	}()
}
