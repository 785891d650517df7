package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/pkg/common/domain"
)

const (
	exchangeKind   = "topic"
	publishTimeout = 5 * time.Second
	routingPrefix  = "storefront."
)

type envelope struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Payload    domain.Event `json:"payload"`
}

// Publisher forwards domain events to a durable topic exchange, routed by event type.
type Publisher struct {
	exchange string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp broker")
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open amqp channel")
	}
	if err := channel.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return &Publisher{exchange: exchange, conn: conn, channel: channel}, nil
}

func (p *Publisher) Dispatch(event domain.Event) error {
	msg, err := newPublishing(event, time.Now().UTC())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKey(event), false, false, msg)
	return errors.Wrapf(err, "publish %s", event.Type())
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return errors.Wrap(err, "close amqp channel")
	}
	return errors.Wrap(p.conn.Close(), "close amqp connection")
}

func RoutingKey(event domain.Event) string {
	return routingPrefix + event.Type()
}

func newPublishing(event domain.Event, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(envelope{Type: event.Type(), OccurredAt: now, Payload: event})
	if err != nil {
		return amqp.Publishing{}, errors.Wrapf(err, "encode %s", event.Type())
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		Type:         event.Type(),
		AppId:        "storefront",
		Body:         body,
	}, nil
}
