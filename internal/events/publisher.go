package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"example.com/carbonlog/internal/domain"
)

// KafkaPublisher writes activity events to Kafka, lazily managing one writer
// per topic.
type KafkaPublisher struct {
	brokers []string
	topic   string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher for the given topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers: brokers,
		topic:   topic,
		writers: make(map[string]*kafka.Writer),
	}
}

// ActivityLogged publishes one event, keyed by username so a user's records
// stay ordered within a partition.
func (p *KafkaPublisher) ActivityLogged(ctx context.Context, record domain.ActivityRecord) error {
	payload, err := json.Marshal(ActivityLogged{
		RecordID:      record.ID,
		Username:      record.Username,
		ActivityType:  record.ActivityType,
		Key:           record.Key,
		Quantity:      record.Quantity,
		Unit:          record.Unit,
		CO2eKg:        record.CO2e,
		IsVerified:    record.IsVerified,
		Timestamp:     record.Timestamp,
		SourceGroupID: record.SourceGroupID,
	})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	writer := p.writerForTopic(p.topic)
	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.Username),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("activity.logged")},
		},
	})
}

func (p *KafkaPublisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
