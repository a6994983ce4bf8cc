package eventbus

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(OrderCreated, map[string]string{"order_number": "ORD-12345"})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, OrderCreated, e.Type)
	assert.False(t, e.OccurredAt.IsZero())

	body, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"type":"order.created"`)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), NewEvent(ReviewChanged, nil)))
	p.Close()
}

func TestAwaitConfirm(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		confirms []amqp.Confirmation
		tag      uint64
		want     error
	}{
		{"ack", []amqp.Confirmation{{DeliveryTag: 1, Ack: true}}, 1, nil},
		{"nack", []amqp.Confirmation{{DeliveryTag: 1, Ack: false}}, 1, ErrNacked},
		{"late ack skipped", []amqp.Confirmation{{DeliveryTag: 1, Ack: true}, {DeliveryTag: 2, Ack: false}}, 2, ErrNacked},
		{"several late acks", []amqp.Confirmation{{DeliveryTag: 3, Ack: false}, {DeliveryTag: 4, Ack: false}, {DeliveryTag: 5, Ack: true}}, 5, nil},
		{"ahead of tag", []amqp.Confirmation{{DeliveryTag: 7, Ack: true}}, 6, ErrConfirmOutOfOrder},
		{"only late acks", []amqp.Confirmation{{DeliveryTag: 1, Ack: true}}, 2, ErrConfirmTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := make(chan amqp.Confirmation, len(tt.confirms))
			for _, c := range tt.confirms {
				ch <- c
			}
			err := awaitConfirm(ctx, ch, tt.tag, 50*time.Millisecond)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestAwaitConfirmClosedChannel(t *testing.T) {
	ch := make(chan amqp.Confirmation)
	close(ch)
	assert.ErrorIs(t, awaitConfirm(context.Background(), ch, 1, time.Second), ErrNotReady)
}

func TestAwaitConfirmContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := awaitConfirm(ctx, make(chan amqp.Confirmation), 1, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}

	exchange := "campus.events.test"
	p, err := NewRabbitMQPublisher(RabbitMQConfig{URL: url, Exchange: exchange})
	if err != nil {
		t.Skipf("RabbitMQ not available: %v", err)
	}
	defer p.Close()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "order.*", exchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	event := NewEvent(OrderCompleted, map[string]int{"sellers": 2})
	require.NoError(t, p.Publish(ctx, event))

	select {
	case d := <-deliveries:
		assert.Equal(t, OrderCompleted, d.RoutingKey)
		assert.Equal(t, event.ID, d.MessageId)
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}

	// A publish that gives up leaves its confirmation behind; the next one
	// must still wait for its own.
	cancelled, stop := context.WithCancel(context.Background())
	stop()
	_ = p.Publish(cancelled, NewEvent(OrderCreated, nil))
	require.NoError(t, p.Publish(ctx, NewEvent(OrderCancelled, nil)))
}
