package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Hello-Vince/crm-system/pkg/idempotency"
	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
)

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) ProcessCustomerCreated(ctx context.Context, key idempotency.Key, customerID, address string) error {
	args := m.Called(ctx, key, customerID, address)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEvent(t *testing.T, payload any, topic string, partition int, offset int64) *pkgkafka.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &pkgkafka.Event{
		Envelope: pkgkafka.Envelope{
			EventType: topic,
			Key:       "key",
			Payload:   data,
		},
		Coordinates: pkgkafka.Coordinates{
			Topic:     topic,
			Partition: partition,
			Offset:    offset,
		},
	}
}

func TestHandler_Handle_ProcessesValidEvent(t *testing.T) {
	enricher := &mockEnricher{}
	handler := NewHandler(enricher, testLogger())

	ev := newTestEvent(t, map[string]any{
		"customer_id": "cust-1",
		"address":     "1 Main St",
	}, TopicCustomerCreated, 0, 42)

	expectedKey := idempotency.Key{ConsumerGroup: ConsumerGroupID, Topic: TopicCustomerCreated, Partition: 0, Offset: 42}
	enricher.On("ProcessCustomerCreated", mock.Anything, expectedKey, "cust-1", "1 Main St").Return(nil)

	err := handler.Handle(context.Background(), ev)

	assert.NoError(t, err)
	enricher.AssertExpectations(t)
}

func TestHandler_Handle_RejectsMissingCustomerID(t *testing.T) {
	handler := NewHandler(&mockEnricher{}, testLogger())

	ev := newTestEvent(t, map[string]any{"address": "1 Main St"}, TopicCustomerCreated, 0, 1)

	err := handler.Handle(context.Background(), ev)

	var permanent *pkgkafka.Permanent
	assert.ErrorAs(t, err, &permanent)
}

func TestHandler_Handle_RejectsMissingAddress(t *testing.T) {
	handler := NewHandler(&mockEnricher{}, testLogger())

	ev := newTestEvent(t, map[string]any{"customer_id": "cust-1"}, TopicCustomerCreated, 0, 1)

	err := handler.Handle(context.Background(), ev)

	var permanent *pkgkafka.Permanent
	assert.ErrorAs(t, err, &permanent)
}

func TestHandler_Handle_PropagatesEnricherError(t *testing.T) {
	enricher := &mockEnricher{}
	handler := NewHandler(enricher, testLogger())

	ev := newTestEvent(t, map[string]any{
		"customer_id": "cust-1",
		"address":     "1 Main St",
	}, TopicCustomerCreated, 0, 7)

	enricher.On("ProcessCustomerCreated", mock.Anything, mock.Anything, "cust-1", "1 Main St").
		Return(pkgkafka.NewRetryable("geocode failed", errors.New("boom")))

	err := handler.Handle(context.Background(), ev)

	var retryable *pkgkafka.Retryable
	assert.ErrorAs(t, err, &retryable)
}
