package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"boothpos/internal/event"

	"github.com/rabbitmq/amqp091-go"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// topic exchange へ booth.<id>.<type> で流す
type RabbitSink struct {
	conn     *amqp091.Connection
	channel  amqpPublisher
	exchange string
}

// 接続と exchange 宣言まで行う
func NewRabbitSink(url, exchange string) (*RabbitSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s exchange: %w", exchange, err)
	}
	return &RabbitSink{conn: conn, channel: ch, exchange: exchange}, nil
}

func (s *RabbitSink) Name() string { return "rabbitmq" }

func RoutingKey(evt event.Event) string {
	return fmt.Sprintf("booth.%d.%s", evt.BoothID, evt.Type)
}

func (s *RabbitSink) Send(ctx context.Context, evt event.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		MessageId:    evt.ID,
		Type:         string(evt.Type),
		Body:         body,
		DeliveryMode: amqp091.Transient,
		Timestamp:    time.Now(),
	}

	err = s.channel.PublishWithContext(
		ctx,
		s.exchange,      // exchange
		RoutingKey(evt), // routing key
		false,           // mandatory
		false,           // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (s *RabbitSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
