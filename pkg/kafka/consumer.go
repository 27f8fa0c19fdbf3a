package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Handler is a function that processes a decoded event. Its return value
// must be nil, a *Retryable, or a *Permanent; any other error is treated as
// retryable (the safe default for an unclassified failure).
type Handler func(ctx context.Context, event *Event) error

// RuntimeConfig holds the configuration for a consumer runtime: one logical
// consumer group reading from one or more topics.
type RuntimeConfig struct {
	Brokers    []string
	GroupID    string
	Topics     []string
	MinBytes   int
	MaxBytes   int
	MaxRetries int
	// BackoffBase and BackoffCap bound the exponential backoff between retry
	// attempts: sleep = min(BackoffBase*2^attempt, BackoffCap).
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// DefaultRuntimeConfig fills in the zero-value fields of cfg with the
// platform defaults: 3 retries, 2s base backoff, 60s cap.
func DefaultRuntimeConfig(cfg RuntimeConfig) RuntimeConfig {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.BackoffCap == 0 {
		cfg.BackoffCap = 60 * time.Second
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 1 << 20
	}
	return cfg
}

// Counters exposes the running totals for a runtime, read with atomic loads.
type Counters struct {
	Processed uint64
	Retried   uint64
	Failed    uint64
	DLQ       uint64
}

// Runtime runs one reader goroutine per topic under a shared consumer group,
// retrying handler failures with bounded exponential backoff and routing
// exhausted or permanent failures to that topic's dead-letter queue.
type Runtime struct {
	cfg     RuntimeConfig
	handler Handler
	dlq     *DLQProducer
	logger  *slog.Logger

	readers []*kafka.Reader

	processed atomic.Uint64
	retried   atomic.Uint64
	failed    atomic.Uint64
	dlqed     atomic.Uint64

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRuntime creates a consumer runtime. dlq may be nil, in which case
// exhausted or permanent messages are committed without being published
// anywhere.
func NewRuntime(cfg RuntimeConfig, handler Handler, dlq *DLQProducer, logger *slog.Logger) *Runtime {
	cfg = DefaultRuntimeConfig(cfg)

	readers := make([]*kafka.Reader, 0, len(cfg.Topics))
	for _, topic := range cfg.Topics {
		readers = append(readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    topic,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		}))
	}

	return &Runtime{
		cfg:     cfg,
		handler: handler,
		dlq:     dlq,
		logger:  logger,
		readers: readers,
	}
}

// Start spawns one goroutine per topic and returns immediately. Each
// goroutine runs until the runtime is stopped or its context is canceled.
func (r *Runtime) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for _, reader := range r.readers {
		reader := reader
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.run(ctx, reader)
		}()
	}
}

// Counters returns a snapshot of the runtime's running totals.
func (r *Runtime) Counters() Counters {
	return Counters{
		Processed: r.processed.Load(),
		Retried:   r.retried.Load(),
		Failed:    r.failed.Load(),
		DLQ:       r.dlqed.Load(),
	}
}

func (r *Runtime) run(ctx context.Context, reader *kafka.Reader) {
	topic := reader.Config().Topic
	group := reader.Config().GroupID

	r.logger.Info("consumer started", slog.String("topic", topic), slog.String("group", group))

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info("consumer stopping", slog.String("topic", topic))
				return
			}
			r.logger.Error("failed to fetch message", slog.String("topic", topic), slog.String("error", err.Error()))
			continue
		}

		ConsumerMessagesReceived.WithLabelValues(topic, group).Inc()
		r.process(ctx, reader, msg)
	}
}

func (r *Runtime) process(ctx context.Context, reader *kafka.Reader, msg kafka.Message) {
	topic := reader.Config().Topic
	group := reader.Config().GroupID
	coords := Coordinates{Topic: msg.Topic, Partition: msg.Partition, Offset: msg.Offset}

	msgCtx := otel.GetTextMapPropagator().Extract(ctx, &KafkaHeaderCarrier{&msg.Headers})

	event, err := decodeEvent(msg.Value, coords)
	if err != nil {
		r.logger.Error("failed to decode event",
			slog.String("topic", topic), slog.String("error", err.Error()))
		r.failed.Add(1)
		ConsumerMessagesFailed.WithLabelValues(topic, group).Inc()
		r.terminal(ctx, reader, msg, coords, msg.Value, "malformed payload: "+err.Error(), 0)
		return
	}

	tracer := otel.Tracer("github.com/Hello-Vince/crm-system/pkg/kafka")
	msgCtx, span := tracer.Start(msgCtx, "kafka.consume "+topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.operation", "process"),
			attribute.String("messaging.kafka.consumer_group", group),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
			attribute.String("messaging.kafka.event_type", event.EventType),
		),
	)
	defer span.End()

	start := time.Now()

	for attempt := 0; ; attempt++ {
		err := r.handler(msgCtx, event)
		if err == nil {
			ConsumerProcessingDuration.WithLabelValues(topic, group).Observe(time.Since(start).Seconds())
			ConsumerMessagesProcessed.WithLabelValues(topic, group).Inc()
			r.processed.Add(1)
			if p := r.processed.Load(); p%100 == 0 {
				r.logger.Info("consumer metrics", slog.String("group", group), slog.Uint64("processed", p))
			}
			r.commit(ctx, reader, msg)
			return
		}

		if isPermanent(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "permanent failure")
			r.failed.Add(1)
			ConsumerMessagesFailed.WithLabelValues(topic, group).Inc()
			r.logger.Error("permanent error, sending to DLQ",
				slog.String("event_type", event.EventType),
				slog.String("topic", topic), slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()))
			r.terminal(ctx, reader, msg, coords, msg.Value, err.Error(), 0)
			return
		}

		// Every retryable classification counts, including the final attempt
		// that exhausts the budget -- only Permanent failures count against
		// `failed`, matching the original's messages_failed_total, which is
		// incremented solely in its except-PermanentError branch.
		r.retried.Add(1)
		ConsumerMessagesRetried.WithLabelValues(topic, group).Inc()

		if attempt >= r.cfg.MaxRetries {
			ConsumerProcessingDuration.WithLabelValues(topic, group).Observe(time.Since(start).Seconds())
			span.RecordError(err)
			span.SetStatus(codes.Error, "retries exhausted")
			r.logger.Error("max retries exceeded, sending to DLQ",
				slog.String("event_type", event.EventType),
				slog.String("topic", topic), slog.Int64("offset", msg.Offset),
				slog.Int("retry_count", r.cfg.MaxRetries),
				slog.String("error", err.Error()))
			r.terminal(ctx, reader, msg, coords, msg.Value, err.Error(), r.cfg.MaxRetries)
			return
		}

		backoff := backoffFor(r.cfg.BackoffBase, r.cfg.BackoffCap, attempt)
		r.logger.Warn("retryable error, backing off",
			slog.String("event_type", event.EventType),
			slog.String("topic", topic), slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt+1), slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// backoffFor computes min(base*2^attempt, cap).
func backoffFor(base, cap time.Duration, attempt int) time.Duration {
	backoff := base * time.Duration(1<<uint(attempt))
	if backoff > cap || backoff <= 0 {
		return cap
	}
	return backoff
}

// terminal routes a message to the DLQ (if configured) and commits its
// offset only once the DLQ write is acknowledged. Committing here, on every
// terminal outcome including a DLQ route, is what guarantees a poison
// message is never replayed forever -- but a failed DLQ publish must leave
// the offset uncommitted so the message is reprocessed on the next poll,
// per the DLQ producer's contract: a DLQ-failed message is never silently
// dropped.
func (r *Runtime) terminal(ctx context.Context, reader *kafka.Reader, msg kafka.Message, coords Coordinates, payload []byte, reason string, retryCount int) {
	group := reader.Config().GroupID
	if r.dlq != nil {
		if err := r.dlq.Publish(ctx, coords, payload, reason, retryCount, group); err != nil {
			r.logger.Error("failed to publish to DLQ, message will be reprocessed",
				slog.String("topic", coords.Topic), slog.Int64("offset", coords.Offset),
				slog.String("error", err.Error()))
			return
		}
		r.dlqed.Add(1)
		ConsumerDLQPublished.WithLabelValues(coords.Topic, group).Inc()
	}
	r.commit(ctx, reader, msg)
}

func (r *Runtime) commit(ctx context.Context, reader *kafka.Reader, msg kafka.Message) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		r.logger.Error("failed to commit message",
			slog.String("topic", msg.Topic), slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()))
	}
}

// Stop cancels all reader goroutines, waits for them to exit, logs final
// metrics, and closes every reader and the DLQ producer. Safe to call more
// than once.
func (r *Runtime) Stop() error {
	var err error
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()

		counters := r.Counters()
		r.logger.Info("consumer runtime stopped",
			slog.String("group", r.cfg.GroupID),
			slog.Uint64("processed", counters.Processed),
			slog.Uint64("retried", counters.Retried),
			slog.Uint64("failed", counters.Failed),
			slog.Uint64("dlq", counters.DLQ),
		)

		for _, reader := range r.readers {
			if closeErr := reader.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
		if r.dlq != nil {
			if closeErr := r.dlq.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
	})
	return err
}

// TopicPrefix domains used across this platform's event topics.
const (
	DomainCRM      = "crm"
	DomainIdentity = "identity"
)

// Topic constructs a fully-qualified topic name, e.g. Topic("crm",
// "customer", "created") == "crm.customer.created".
func Topic(domain, entity, action string) string {
	return fmt.Sprintf("%s.%s.%s", domain, entity, action)
}
