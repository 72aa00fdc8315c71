package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type AMQPConfig struct {
	URL          string
	ExchangeName string
	RoutingKey   string // prefix, the event type is appended
}

// AMQPPublisher forwards events to a durable topic exchange for consumers
// outside the live path (dashboards, warehousing).
type AMQPPublisher struct {
	logger  *logrus.Entry
	config  AMQPConfig
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(logger *logrus.Logger, config AMQPConfig) *AMQPPublisher {
	if config.ExchangeName == "" {
		config.ExchangeName = "callassist.events"
	}
	if config.RoutingKey == "" {
		config.RoutingKey = "call"
	}
	return &AMQPPublisher{logger: logger.WithField("component", "amqp"), config: config}
}

// Connect dials the broker and declares the exchange.
func (p *AMQPPublisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		return nil
	}
	if p.config.URL == "" {
		return fmt.Errorf("AMQP URL not configured")
	}

	conn, err := amqp.DialConfig(p.config.URL, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP server: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		p.config.ExchangeName,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare AMQP exchange: %w", err)
	}

	p.conn, p.channel = conn, ch
	p.logger.WithField("exchange", p.config.ExchangeName).Info("Connected to AMQP server")
	return nil
}

func (p *AMQPPublisher) RoutingKey(ev Event) string {
	return p.config.RoutingKey + "." + ev.Type
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return fmt.Errorf("not connected to AMQP server")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = p.channel.Publish(
		p.config.ExchangeName,
		p.RoutingKey(ev),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.Timestamp,
			Type:         ev.Type,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.WithError(err).WithField("call_id", ev.CallID).Warn("AMQP publish failed, dropping connection")
		p.closeLocked()
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close is safe to call more than once.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
