package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/capigiba/ADS/internal/domain"
)

// ScanProcessor handles one scan job end to end. Implementations own status
// transitions; a returned error means the record should be logged, not
// redelivered.
type ScanProcessor interface {
	Handle(ctx context.Context, payload domain.ScanTaskPayload) error
}

// Consumer polls the scan topic and dispatches records to a bounded set of
// in-flight handlers.
type Consumer struct {
	client    *kgo.Client
	processor ScanProcessor
	groupID   string
	topic     string
	sem       chan struct{}
}

// NewConsumer constructs a consumer joined to groupID on the scan topic.
// maxInFlight bounds concurrently processed records.
func NewConsumer(brokers []string, groupID string, processor ScanProcessor, maxInFlight int) (*Consumer, error) {
	return NewConsumerWithTopic(brokers, groupID, processor, maxInFlight, TopicScan)
}

// NewConsumerWithTopic constructs a consumer on a custom topic so tests can
// isolate themselves.
func NewConsumerWithTopic(brokers []string, groupID string, processor ScanProcessor, maxInFlight int, topic string) (*Consumer, error) {
	slog.Info("creating redpanda consumer", slog.Any("brokers", brokers), slog.String("group_id", groupID), slog.String("topic", topic))
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	if processor == nil {
		return nil, fmt.Errorf("missing scan processor")
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}

	kotelService := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
	)))

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10 * time.Second),
		kgo.SessionTimeout(30 * time.Second),
		kgo.HeartbeatInterval(3 * time.Second),
		kgo.FetchMaxWait(5 * time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(1 * time.Second),
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("redpanda consumer client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", topic), slog.Any("error", err))
	}

	return &Consumer{
		client:    client,
		processor: processor,
		groupID:   groupID,
		topic:     topic,
		sem:       make(chan struct{}, maxInFlight),
	}, nil
}

// Start consumes until the context is cancelled. It returns the context's
// error after in-flight handlers finish.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("consumer started", slog.String("group_id", c.groupID), slog.String("topic", c.topic))
	var wg sync.WaitGroup
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}
		fetches.EachError(func(t string, p int32, err error) {
			slog.Error("fetch error", slog.String("topic", t), slog.Int("partition", int(p)), slog.Any("error", err))
		})
		fetches.EachRecord(func(record *kgo.Record) {
			c.sem <- struct{}{}
			wg.Add(1)
			go func(record *kgo.Record) {
				defer wg.Done()
				defer func() { <-c.sem }()
				if err := c.processRecord(ctx, record); err != nil {
					slog.Error("failed to process record",
						slog.Int64("offset", record.Offset),
						slog.Int("partition", int(record.Partition)),
						slog.Any("error", err))
				}
				c.client.MarkCommitRecords(record)
			}(record)
		})
	}
	wg.Wait()
	return ctx.Err()
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) error {
	tracer := otel.Tracer("queue.consumer")
	ctx, span := tracer.Start(ctx, "ProcessScanJob")
	defer span.End()

	var payload domain.ScanTaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.ScanID == "" {
		return fmt.Errorf("record missing scan_id")
	}

	slog.Info("processing scan task",
		slog.String("scan_id", payload.ScanID),
		slog.Int64("offset", record.Offset))
	return c.processor.Handle(ctx, payload)
}

// Close closes the consumer client.
func (c *Consumer) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
