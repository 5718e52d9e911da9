package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/contracts"
	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/messaging"
)

type auditConsumer struct {
	rabbitmq *messaging.RabbitMQ
	repo     domain.GameAuditRepository
}

func NewAuditConsumer(rabbitmq *messaging.RabbitMQ, repo domain.GameAuditRepository) *auditConsumer {
	return &auditConsumer{
		rabbitmq: rabbitmq,
		repo:     repo,
	}
}

// Listen drains the audit queue into the repository.
func (c *auditConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.AuditQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal audit message")
			return err
		}

		var entry domain.GameAuditLog
		if err := json.Unmarshal(message.Data, &entry); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal audit entry")
			return err
		}

		if err := c.repo.Log(ctx, &entry); err != nil {
			log.Error().Err(err).Str("room", entry.RoomID).Msg("failed to persist audit entry")
			return err
		}

		return nil
	})
}
