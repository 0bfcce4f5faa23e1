package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Handler processes one event. Returning an error rejects the delivery
// without requeueing it.
type Handler func(ctx context.Context, ev Event) error

// Consume reads the given queues until ctx is cancelled, redialing with
// backoff when the broker goes away.
func Consume(ctx context.Context, url string, queues []string, handle Handler, log logrus.FieldLogger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("consumer: dial failed, retrying in %s", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		err = consumeLoop(ctx, conn, queues, handle, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consumer: loop ended, reconnecting")
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queues []string, handle Handler, log logrus.FieldLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()
	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("consumer: set QoS failed")
	}
	merged := make(chan amqp.Delivery)
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- d:
				case <-ctx.Done():
					return
				}
			}
		}(msgs)
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("connection closed")
		case d := <-merged:
			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				log.WithError(err).Warn("consumer: bad message")
				_ = d.Nack(false, false)
				continue
			}
			if err := handle(ctx, ev); err != nil {
				log.WithError(err).WithField("type", ev.Type).Warn("consumer: handler failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
