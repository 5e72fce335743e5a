package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "trolley-alerts"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type alertEvent struct {
	TrolleyID string `json:"trolley_id"`
	Message   string `json:"message"`
	RaisedAt  string `json:"raised_at"`
}

// AlertPublisher forwards security alerts to the store's back office.
type AlertPublisher struct {
	writer messageWriter
}

func NewAlertPublisher(topic string, brokers ...string) *AlertPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &AlertPublisher{writer: w}
}

// Publish keys the message by trolley so alerts of one trolley stay ordered.
func (p *AlertPublisher) Publish(ctx context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(alertEvent{
		TrolleyID: alert.TrolleyID,
		Message:   alert.Message,
		RaisedAt:  alert.RaisedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(alert.TrolleyID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("trolley.alert")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}
