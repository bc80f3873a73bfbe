// Package amqp forwards unauthenticated events to RabbitMQ, so processes
// other than the one holding the session (e.g. a UI gateway) can react.
package amqp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gravitational/trace"
	"github.com/rabbitmq/amqp091-go"

	"github.com/viant/authclient/client/auth/notify"
)

const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp091.Channel used by Publisher.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Publisher publishes notify.Event messages to an exchange.
type Publisher struct {
	channel    Channel
	exchange   string
	routingKey string
	closer     func() error
}

// New creates a Publisher over an already open channel.
func New(channel Channel, exchange, routingKey string) *Publisher {
	return &Publisher{channel: channel, exchange: exchange, routingKey: routingKey}
}

// Dial connects to url and declares a durable fanout exchange.
func Dial(url, exchange, routingKey string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, trace.Wrap(err, "dialing AMQP")
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, trace.Wrap(err, "opening channel")
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, trace.Wrap(err, "declaring exchange")
	}
	ret := New(channel, exchange, routingKey)
	ret.closer = func() error {
		if err := channel.Close(); err != nil {
			conn.Close()
			return trace.Wrap(err)
		}
		return trace.Wrap(conn.Close())
	}
	return ret, nil
}

// Publish implements notify.Listener.
func (p *Publisher) Publish(ctx context.Context, event notify.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return trace.Wrap(err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Time,
			Type:         "session.unauthenticated",
			Body:         body,
		},
	)
	return trace.Wrap(err, "publishing unauthenticated event")
}

// Close releases the channel and connection opened by Dial.
func (p *Publisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
