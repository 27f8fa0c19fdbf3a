package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditLog_Succeeds(t *testing.T) {
	now := time.Now().UTC()
	tenant := "tenant-1"

	log, err := NewAuditLog("a1", "crm.customer.created", []byte(`{"customer_id":"c1"}`), &tenant, "crm.customer.created", 0, 100, now)
	require.NoError(t, err)
	assert.Equal(t, "a1", log.ID)
	assert.Equal(t, 0, log.Partition)
	assert.Equal(t, int64(100), log.Offset)
}

func TestNewAuditLog_AllowsNilTenant(t *testing.T) {
	now := time.Now().UTC()

	log, err := NewAuditLog("a1", "identity.tenant.created", []byte(`{}`), nil, "identity.tenant.created", 0, 1, now)
	require.NoError(t, err)
	assert.Nil(t, log.TenantID)
}

func TestNewAuditLog_RejectsMissingMetadata(t *testing.T) {
	now := time.Now().UTC()

	_, err := NewAuditLog("a1", "", []byte(`{}`), nil, "topic", 0, 1, now)
	assert.Error(t, err)

	_, err = NewAuditLog("a1", "event", []byte(`{}`), nil, "", 0, 1, now)
	assert.Error(t, err)

	_, err = NewAuditLog("a1", "event", []byte(`{}`), nil, "topic", -1, 1, now)
	assert.Error(t, err)

	_, err = NewAuditLog("a1", "event", []byte(`{}`), nil, "topic", 0, -1, now)
	assert.Error(t, err)
}
