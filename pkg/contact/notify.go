package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReceivedEvent is published after a message has been stored.
type ReceivedEvent struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Notifier interface {
	NotifyReceived(ctx context.Context, ev ReceivedEvent) error
}

// AMQPNotifier publishes ReceivedEvent to a durable RabbitMQ queue. Each
// publish dials its own connection; contact messages are rare.
//
// The whole exchange, TCP connect and AMQP handshake included, is bounded
// by the context passed to NotifyReceived.
type AMQPNotifier struct {
	url   string
	queue string
}

func NewAMQPNotifier(url, queue string) *AMQPNotifier {
	if queue == "" {
		queue = "contact.received"
	}
	return &AMQPNotifier{url: url, queue: queue}
}

func (n *AMQPNotifier) NotifyReceived(ctx context.Context, ev ReceivedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := n.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	return ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// dialTimeout bounds the handshake when the caller's context has no
// deadline of its own.
const dialTimeout = 5 * time.Second

func (n *AMQPNotifier) dial(ctx context.Context) (*amqp.Connection, error) {
	return amqp.DialConfig(n.url, amqp.Config{
		Locale: "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// Cleared by amqp091 once the connection is open.
			deadline, ok := ctx.Deadline()
			if !ok {
				deadline = time.Now().Add(dialTimeout)
			}
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}
