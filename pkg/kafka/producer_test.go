package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProducerConfig(t *testing.T) {
	brokers := []string{"broker1:9092", "broker2:9092"}
	cfg := DefaultProducerConfig(brokers)

	assert.Equal(t, brokers, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.False(t, cfg.Async)
}

func TestDefaultProducerConfig_SingleBroker(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"localhost:9092"})
	assert.Len(t, cfg.Brokers, 1)
	assert.Equal(t, "localhost:9092", cfg.Brokers[0])
}

func TestNewProducer_CreatesInstance(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"localhost:19092"})
	p := NewProducer(cfg, silentLogger())
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)

	err := p.Close()
	assert.NoError(t, err)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestPingBrokers_EmptySlice(t *testing.T) {
	err := PingBrokers(context.Background(), []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestProducer_Publish_MarshalsEnvelope(t *testing.T) {
	env, err := NewEnvelope("crm.customer.created", "cust-1", map[string]string{"name": "Acme"})
	require.NoError(t, err)

	data, err := env.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"crm.customer.created"`)
	assert.Contains(t, string(data), `"key":"cust-1"`)
}

func TestProducer_Publish_ConnectionError(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"127.0.0.1:1"})
	p := NewProducer(cfg, silentLogger())
	defer p.Close()

	env, err := NewEnvelope("crm.customer.created", "cust-1", map[string]string{"name": "Acme"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = p.Publish(ctx, "crm.customer.created", env)
	assert.Error(t, err, "publish against an unreachable broker should fail")
}
