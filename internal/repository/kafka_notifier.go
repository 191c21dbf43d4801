package repository

import (
	"context"
	"time"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/models"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/domain/repository"
	pkgkafka "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/kafka"
)

// KafkaNotifier implements Notifier by publishing one refresh event per
// completed run, so the prediction pipeline and other consumers know the
// feature tables were swapped.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaNotifier creates a Kafka-backed refresh notifier.
func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) repository.Notifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) NotifyRefresh(ctx context.Context, report models.RunReport) error {
	return n.producer.Publish(ctx, n.topic, []byte("features"), map[string]interface{}{
		"refreshed_at":      report.FinishedAt.UTC().Format(time.RFC3339),
		"started_at":        report.StartedAt.UTC().Format(time.RFC3339),
		"indicator_rows":    report.IndicatorRows,
		"chip_rows":         report.ChipRows,
		"breadth_rows":      report.BreadthRows,
		"symbols_processed": report.SymbolsProcessed,
		"symbols_skipped":   report.SymbolsSkipped,
		"dates":             report.Dates,
		"duration_ms":       report.Duration().Milliseconds(),
	})
}

func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		return n.producer.Close()
	}
	return nil
}

// NopNotifier is used when Kafka is disabled.
type NopNotifier struct{}

func (NopNotifier) NotifyRefresh(ctx context.Context, report models.RunReport) error { return nil }
func (NopNotifier) Close() error                                                     { return nil }
