// Package amqp publishes trade records to RabbitMQ so external consumers
// (dashboards, notification bots) can follow fills without touching the
// trader's database.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

const tradeQueue = "trade_records"

// Publisher is a model.TradeSink backed by one durable RabbitMQ queue.
type Publisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	log     *slog.Logger
}

// NewPublisher dials RabbitMQ with retries and declares the trade queue.
func NewPublisher(uri string, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}

	var conn *amqp091.Connection
	var err error
	for i := 0; i < 10; i++ {
		conn, err = amqp091.Dial(uri)
		if err == nil {
			break
		}
		log.Warn("rabbitmq connect failed, retrying", "attempt", i+1, "err", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial after 10 attempts: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		log.Warn("publisher confirms unavailable", "err", err)
	}

	if _, err := ch.QueueDeclare(
		tradeQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", tradeQueue, err)
	}

	log.Info("rabbitmq publisher ready", "queue", tradeQueue)
	return &Publisher{conn: conn, channel: ch, log: log}, nil
}

// Record publishes one fill as a persistent JSON message.
func (p *Publisher) Record(rec model.TradeRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal trade record: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		"", // default exchange
		tradeQueue,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    rec.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish trade record: %w", err)
	}
	return nil
}

// Close shuts the channel and connection down.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
