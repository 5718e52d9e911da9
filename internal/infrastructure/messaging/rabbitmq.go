package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/contracts"
)

const (
	// GameExchange carries audit-relevant lifecycle events, routed by key.
	GameExchange = "game"
	// BroadcastExchange fans every session event envelope out to all server
	// processes.
	BroadcastExchange  = "game_broadcast"
	DeadLetterExchange = "dlx"
)

const (
	AuditQueue      = "game_audit"
	DeadLetterQueue = "dead_letter_queue"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

func NewRabbitMQ(uri string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %v", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		Channel: ch,
	}

	if err := rmq.setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

func (r *RabbitMQ) setup() error {
	if err := r.Channel.ExchangeDeclare(GameExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %v", GameExchange, err)
	}
	if err := r.Channel.ExchangeDeclare(BroadcastExchange, "fanout", false, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %v", BroadcastExchange, err)
	}
	if err := r.Channel.ExchangeDeclare(DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %v", DeadLetterExchange, err)
	}

	if _, err := r.Channel.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %v", DeadLetterQueue, err)
	}
	if err := r.Channel.QueueBind(DeadLetterQueue, "", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %v", DeadLetterQueue, err)
	}

	return r.declareAndBindQueue(AuditQueue, []string{"game.#"}, GameExchange)
}

func (r *RabbitMQ) declareAndBindQueue(queueName string, routingKeys []string, exchange string) error {
	args := amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	}

	q, err := r.Channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		args,      // arguments with DLX config
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %v", queueName, err)
	}

	for _, key := range routingKeys {
		if err := r.Channel.QueueBind(
			q.Name,   // queue name
			key,      // routing key
			exchange, // exchange
			false,
			nil,
		); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %v", queueName, err)
		}
	}

	return nil
}

// PublishMessage routes one message onto the game exchange.
func (r *RabbitMQ) PublishMessage(ctx context.Context, routingKey string, msg contracts.AmqpMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return r.Channel.PublishWithContext(ctx,
		GameExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// PublishBroadcast fans body out to every bound process queue. Best-effort
// transient delivery: a process that is down missed the event anyway.
func (r *RabbitMQ) PublishBroadcast(ctx context.Context, body []byte) error {
	return r.Channel.PublishWithContext(ctx,
		BroadcastExchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// ConsumeMessages runs handler for every delivery on queueName. Handler
// errors nack without requeue, pushing the message to the dead letter
// exchange.
func (r *RabbitMQ) ConsumeMessages(queueName string, handler func(ctx context.Context, msg amqp.Delivery) error) error {
	deliveries, err := r.Channel.Consume(
		queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %v", queueName, err)
	}

	go func() {
		for msg := range deliveries {
			if err := handler(context.Background(), msg); err != nil {
				log.Error().Err(err).Str("queue", queueName).Msg("message handler failed")
				msg.Nack(false, false)
				continue
			}
			msg.Ack(false)
		}
	}()

	return nil
}

// ConsumeBroadcast binds a fresh exclusive queue to the broadcast exchange
// and runs handler for every envelope, including this process's own (the
// handler filters by origin).
func (r *RabbitMQ) ConsumeBroadcast(handler func(ctx context.Context, body []byte)) error {
	q, err := r.Channel.QueueDeclare(
		"",    // broker-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare broadcast queue: %v", err)
	}
	if err := r.Channel.QueueBind(q.Name, "", BroadcastExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind broadcast queue: %v", err)
	}

	deliveries, err := r.Channel.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume broadcasts: %v", err)
	}

	go func() {
		for msg := range deliveries {
			handler(context.Background(), msg.Body)
		}
	}()

	return nil
}
