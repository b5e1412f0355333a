package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	NotificationOrderReceived = "order_received"
	NotificationStatusChanged = "order_status_changed"
)

type Notification struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Kind    string    `json:"kind"`
	OrderID string    `json:"orderId,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// Notifier is a best-effort sink. Callers log a returned error and carry on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier only records the notification, used when no broker is configured.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	n.log.WithFields(logrus.Fields{
		"to":       msg.To,
		"kind":     msg.Kind,
		"order_id": msg.OrderID,
	}).Infof("Notifier: Delivery skipped (no broker configured): %s", msg.Subject)
	return nil
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitNotifier publishes notifications as persistent JSON messages to a fanout exchange.
type RabbitNotifier struct {
	mu             sync.Mutex
	conn           *amqp.Connection
	ch             amqpChannel
	exchange       string
	publishTimeout time.Duration
	log            *logrus.Logger
}

func NewRabbitNotifier(url, exchange string, logger *logrus.Logger) (*RabbitNotifier, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	logger.Infof("Notifier: Publishing to RabbitMQ exchange %s", exchange)
	return &RabbitNotifier{
		conn:           conn,
		ch:             ch,
		exchange:       exchange,
		publishTimeout: 5 * time.Second,
		log:            logger,
	}, nil
}

func (n *RabbitNotifier) Notify(ctx context.Context, msg Notification) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch == nil {
		return fmt.Errorf("rabbitmq: publish channel is closed")
	}

	pubCtx, cancel := context.WithTimeout(ctx, n.publishTimeout)
	defer cancel()

	err = n.ch.PublishWithContext(pubCtx, n.exchange, msg.Kind, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    msg.SentAt,
		Body:         body,
	})
	if err != nil {
		n.log.Errorf("Notifier: Failed to publish %s for order %s: %v", msg.Kind, msg.OrderID, err)
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	n.log.Infof("Notifier: Published %s for order %s", msg.Kind, msg.OrderID)
	return nil
}

func (n *RabbitNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		err := n.conn.Close()
		n.conn = nil
		return err
	}
	return nil
}
