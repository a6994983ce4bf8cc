package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

const publishTimeout = 5 * time.Second

var (
	ErrNotReady          = errors.New("publisher not ready")
	ErrNacked            = errors.New("nacked by broker")
	ErrConfirmTimeout    = errors.New("publish confirmation timeout")
	ErrConfirmOutOfOrder = errors.New("confirmation out of order")
)

type RabbitMQConfig struct {
	URL          string
	Exchange     string
	ExchangeType string
}

// RabbitMQPublisher publishes events to a durable exchange with publisher
// confirms. Publish calls are serialised and each waits for the confirmation
// carrying its own delivery tag.
type RabbitMQPublisher struct {
	cfg           RabbitMQConfig
	mu            sync.Mutex
	connection    *amqp.Connection
	channel       *amqp.Channel
	notifyConfirm chan amqp.Confirmation
	published     uint64 // delivery tags start at 1 once the channel is in confirm mode
}

func NewRabbitMQPublisher(cfg RabbitMQConfig) (*RabbitMQPublisher, error) {
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = "topic"
	}
	p := &RabbitMQPublisher{cfg: cfg}

	log.Info().Str("exchange", cfg.Exchange).Msg("Connecting to RabbitMQ")
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	p.connection = conn

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	p.channel = ch

	if err := ch.Confirm(false); err != nil {
		p.Close()
		return nil, fmt.Errorf("channel could not be put into confirm mode: %w", err)
	}
	p.notifyConfirm = ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	err = ch.ExchangeDeclare(
		cfg.Exchange,     // name
		cfg.ExchangeType, // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Info().Str("exchange", cfg.Exchange).Msg("RabbitMQ publisher ready")
	return p, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return ErrNotReady
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange, // exchange
		event.Type,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.published++

	if err := awaitConfirm(ctx, p.notifyConfirm, p.published, publishTimeout); err != nil {
		return fmt.Errorf("event %s: %w", event.ID, err)
	}
	log.Debug().Str("type", event.Type).Uint64("tag", p.published).Msg("Event confirmed")
	return nil
}

// awaitConfirm waits for the confirmation of tag. Confirmations for earlier
// tags belong to publishes that already gave up and are discarded.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return ErrNotReady
			}
			if confirm.DeliveryTag < tag {
				log.Debug().Uint64("tag", confirm.DeliveryTag).Msg("Discarding late confirmation")
				continue
			}
			if confirm.DeliveryTag > tag {
				return fmt.Errorf("%w: got tag %d, want %d", ErrConfirmOutOfOrder, confirm.DeliveryTag, tag)
			}
			if !confirm.Ack {
				return ErrNacked
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrConfirmTimeout
		}
	}
}

func (p *RabbitMQPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing RabbitMQ channel")
		}
		p.channel = nil
	}
	if p.connection != nil && !p.connection.IsClosed() {
		if err := p.connection.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing RabbitMQ connection")
		}
	}
	p.connection = nil
	log.Info().Msg("RabbitMQ publisher closed")
}
