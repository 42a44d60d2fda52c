package infra

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPFanout publishes messages to a durable fanout exchange.
type AMQPFanout struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPFanout dials the broker and declares the exchange.
func NewAMQPFanout(url, exchange string) (*AMQPFanout, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPFanout{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends body with the given routing key. amqp channels are not safe
// for concurrent publishing.
func (a *AMQPFanout) Publish(ctx context.Context, routingKey string, body []byte) error {
	msg := amqp.Publishing{
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		Body:         body,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.channel.PublishWithContext(ctx,
		a.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (a *AMQPFanout) Close() {
	if a.channel != nil {
		_ = a.channel.Close()
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
}
