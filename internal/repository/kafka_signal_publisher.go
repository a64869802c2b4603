package repository

import (
	"context"
	"fmt"

	"RangePulse/internal/domain/models"
	domrepo "RangePulse/internal/domain/repository"
	pkgkafka "RangePulse/pkg/kafka"
)

// KafkaSignalPublisher implements SignalPublisher for Kafka.
// Messages are keyed by symbol so per-symbol ordering is preserved.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

type signalEnvelope struct {
	Timeframe string              `json:"tf"`
	Signal    models.SignalRecord `json:"signal"`
}

func (p *KafkaSignalPublisher) PublishSignals(ctx context.Context, tf domrepo.Timeframe, signals []models.SignalRecord) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(signals))
	for _, sig := range signals {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(sig.Symbol),
			Value: signalEnvelope{Timeframe: string(tf), Signal: sig},
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish signals: %w", err)
	}
	return nil
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopSignalPublisher is used when Kafka is disabled.
type NoopSignalPublisher struct{}

func (NoopSignalPublisher) PublishSignals(context.Context, domrepo.Timeframe, []models.SignalRecord) error {
	return nil
}

func (NoopSignalPublisher) Close() error { return nil }
