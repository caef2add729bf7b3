package repository

import (
	"context"

	"AlphaFusion/internal/domain/models"
	domrepo "AlphaFusion/internal/domain/repository"
	pkgkafka "AlphaFusion/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

// ResultEventType is set as the event_type header on published results.
const ResultEventType = "analysis.result"

// KafkaPublisher publishes analysis results keyed by symbol, so every
// symbol's results stay ordered within one partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.AnalysisResult) error {
	return p.PublishBatch(ctx, []*models.AnalysisResult{r})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, results []*models.AnalysisResult) error {
	msgs := resultMessages(results)
	if len(msgs) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func resultMessages(results []*models.AnalysisResult) []pkgkafka.Message {
	msgs := make([]pkgkafka.Message, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(r.Symbol),
			Value: r.View(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(ResultEventType)},
				{Key: "cycle_id", Value: []byte(r.CycleID)},
			},
		})
	}
	return msgs
}
