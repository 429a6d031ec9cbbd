package repository

import (
	"context"

	"TradeSim/internal/domain/models"
	"TradeSim/pkg/kafka"
)

// KafkaReportPublisher publishes finished reports keyed by symbol.
type KafkaReportPublisher struct {
	producer *kafka.Producer
}

func NewKafkaReportPublisher(p *kafka.Producer) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: p}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, report *models.Report) error {
	return p.producer.Publish(ctx, report.Symbol, report)
}

func (p *KafkaReportPublisher) Close() error {
	return p.producer.Close()
}

// NopReportPublisher drops reports. Used when Kafka is disabled.
type NopReportPublisher struct{}

func (NopReportPublisher) PublishReport(context.Context, *models.Report) error { return nil }
func (NopReportPublisher) Close() error                                        { return nil }
