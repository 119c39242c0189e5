package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/gallery/internal/models"
)

// NotificationHandler processes one decoded notification. A returned error
// naks the message for redelivery.
type NotificationHandler func(ctx context.Context, n models.PhotoNotification) error

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{nc: nc, js: js}, nil
}

// ConsumeNotifications delivers new photo notifications to handler until ctx
// is cancelled. Only messages published after the consumer starts are seen.
func (c *Consumer) ConsumeNotifications(ctx context.Context, consumerName string, handler NotificationHandler) error {
	stream, err := c.js.Stream(ctx, PhotosStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", PhotosStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, feedConsumerConfig(consumerName))
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch notifications error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				handleMessage(ctx, msg, handler)
			}
		}
	}()

	slog.Info("notification consumer started", "consumer", consumerName)
	return nil
}

// consumerInactiveThreshold lets the server remove a feed consumer whose
// process is gone. A running fetch loop polls far more often than this.
const consumerInactiveThreshold = 5 * time.Minute

func feedConsumerConfig(name string) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Name:              name,
		Durable:           name,
		AckPolicy:         jetstream.AckExplicitPolicy,
		AckWait:           10 * time.Second,
		MaxDeliver:        3,
		FilterSubject:     PhotosSubjectBase + ".>",
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: consumerInactiveThreshold,
	}
}

func handleMessage(ctx context.Context, msg jetstream.Msg, handler NotificationHandler) {
	var n models.PhotoNotification
	if err := json.Unmarshal(msg.Data(), &n); err != nil {
		// undecodable payloads never succeed on redelivery
		slog.Error("decode notification", "subject", msg.Subject(), "error", err)
		_ = msg.Term()
		return
	}
	if err := handler(ctx, n); err != nil {
		slog.Error("process notification error", "error", err, "subject", msg.Subject())
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

func (c *Consumer) Close() {
	c.nc.Close()
}
