package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"whitecarrot/internal/config"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/resilience"

	"github.com/streadway/amqp"
)

// Transport names accepted in the notify configuration
const (
	TransportLog  = "log"
	TransportAMQP = "amqp"
)

// Notifier delivers messages
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// New creates the transport selected by cfg
func New(cfg config.NotifyConfig, logger *errors.Logger) (Notifier, error) {
	switch cfg.Transport {
	case TransportLog, "":
		return NewLogNotifier(cfg.Sender, logger), nil
	case TransportAMQP:
		return NewAMQPNotifier(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf("unknown notify transport %q", cfg.Transport), nil)
	}
}

// LogNotifier writes messages to the application log instead of sending them
type LogNotifier struct {
	sender string
	logger *errors.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogNotifier creates a log transport
func NewLogNotifier(sender string, logger *errors.Logger) *LogNotifier {
	return &LogNotifier{sender: sender, logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = n.sender
	}
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()

	if n.logger != nil {
		n.logger.Info("Email sent",
			"kind", msg.Kind,
			"from", msg.From,
			"to", msg.To,
			"subject", msg.Subject,
			"body", msg.Body)
	}
	return nil
}

// Sent returns the messages written so far
func (n *LogNotifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Message, len(n.sent))
	copy(out, n.sent)
	return out
}

func (n *LogNotifier) Close() error { return nil }

// publisher is the part of an AMQP channel the notifier uses
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes messages as JSON to an exchange for a mail worker
type AMQPNotifier struct {
	conn       *amqp.Connection
	mu         sync.Mutex
	ch         publisher
	exchange   string
	routingKey string
	sender     string
	breaker    *resilience.CircuitBreaker[struct{}]
	logger     *errors.Logger
}

// NewAMQPNotifier dials the broker and declares the exchange
func NewAMQPNotifier(cfg config.NotifyConfig, logger *errors.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeNotifyFailed, "error connecting to RabbitMQ", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeNotifyFailed, "failed to open AMQP channel", err)
	}
	if err := ch.ExchangeDeclare(cfg.AMQP.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeNotifyFailed, "failed to declare exchange", err).
			WithContext("exchange", cfg.AMQP.Exchange)
	}

	n := newAMQPNotifier(ch, cfg, logger)
	n.conn = conn
	return n, nil
}

func newAMQPNotifier(ch publisher, cfg config.NotifyConfig, logger *errors.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		ch:         ch,
		exchange:   cfg.AMQP.Exchange,
		routingKey: cfg.AMQP.RoutingKey,
		sender:     cfg.Sender,
		breaker:    resilience.NewCircuitBreaker[struct{}]("notify-amqp", cfg.CircuitBreaker, logger),
		logger:     logger,
	}
}

func (n *AMQPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.From == "" {
		msg.From = n.sender
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeNotifyFailed, "failed to encode message", err)
	}

	key := n.routingKey + "." + string(msg.Kind)
	_, err = n.breaker.Execute(func() (struct{}, error) {
		n.mu.Lock()
		defer n.mu.Unlock()
		return struct{}{}, n.ch.Publish(n.exchange, key, false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	})
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeNotifyFailed, "failed to publish message", err).
			WithContext("routing_key", key)
	}

	if n.logger != nil {
		n.logger.Debug("Email queued", "kind", msg.Kind, "to", msg.To, "routing_key", key)
	}
	return nil
}

// Stats reports the circuit breaker state
func (n *AMQPNotifier) Stats() map[string]any {
	return n.breaker.GetStats()
}

func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
