package messaging

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/config"
)

// NewKafkaClient creates a franz-go client from configuration
func NewKafkaClient(cfg *config.KafkaConfig) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return client, nil
}

// KafkaPublisher publishes records through a franz-go client. Records are
// keyed so all events for one aggregate land on the same partition.
type KafkaPublisher struct {
	client *kgo.Client
}

// NewKafkaPublisher creates a publisher over an existing client
func NewKafkaPublisher(client *kgo.Client) *KafkaPublisher {
	return &KafkaPublisher{client: client}
}

// Publish produces one record synchronously
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered records and closes the client
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
