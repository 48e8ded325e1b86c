// Package redpanda provides Redpanda/Kafka queue integration.
//
// It carries scan jobs from the API server to the worker. Publishing uses a
// transactional producer so a scan row in queued state always has exactly one
// record on the topic.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/capigiba/ADS/internal/adapter/observability"
	"github.com/capigiba/ADS/internal/domain"
)

const (
	// TopicScan is the Kafka topic for scan jobs.
	TopicScan = "scan-jobs"
)

// Producer wraps a Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	// Transactions cannot interleave on one client; this serializes them.
	transactionChan chan struct{}
}

// NewProducer constructs a Producer with exactly-once semantics.
func NewProducer(brokers []string) (*Producer, error) {
	return NewProducerWithTransactionalID(brokers, "ads-scanner-producer")
}

// NewProducerWithTransactionalID constructs a Producer with a custom
// transactional ID, letting tests run multiple producers without conflicts.
func NewProducerWithTransactionalID(brokers []string, transactionalID string) (*Producer, error) {
	slog.Info("creating redpanda producer", slog.Any("brokers", brokers), slog.String("transactional_id", transactionalID))
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	// Topic creation is best-effort; it usually already exists.
	if err := createTopicIfNotExists(context.Background(), client, TopicScan, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", TopicScan), slog.Any("error", err))
	}

	return &Producer{
		client:          client,
		transactionChan: make(chan struct{}, 1),
	}, nil
}

// EnqueueScan enqueues a scan task with exactly-once semantics.
func (p *Producer) EnqueueScan(ctx domain.Context, payload domain.ScanTaskPayload) (string, error) {
	return p.EnqueueScanToTopic(ctx, payload, TopicScan)
}

// EnqueueScanToTopic enqueues a scan task to a specific topic. Tests use
// unique topics for isolation.
func (p *Producer) EnqueueScanToTopic(ctx domain.Context, payload domain.ScanTaskPayload, topic string) (string, error) {
	select {
	case p.transactionChan <- struct{}{}:
		defer func() { <-p.transactionChan }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := p.client.BeginTransaction(); err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		if abortErr := p.client.EndTransaction(ctx, kgo.TryAbort); abortErr != nil {
			slog.Error("failed to abort transaction", slog.Any("error", abortErr))
		}
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	record := &kgo.Record{
		Topic: topic,
		// Scan ID as key keeps retries of one scan on one partition.
		Key:   []byte(payload.ScanID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "scan_id", Value: []byte(payload.ScanID)},
		},
	}

	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		if abortErr := p.client.EndTransaction(ctx, kgo.TryAbort); abortErr != nil {
			slog.Error("failed to abort transaction", slog.Any("error", abortErr))
		}
		return "", fmt.Errorf("produce: %w", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	observability.EnqueueScan()
	slog.Info("scan task enqueued", slog.String("topic", topic), slog.String("scan_id", payload.ScanID))
	return payload.ScanID, nil
}

// Close closes the producer.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
