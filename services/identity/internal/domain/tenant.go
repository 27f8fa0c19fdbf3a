package domain

import "time"

// Tenant is one node in the tenant hierarchy. Every customer record and
// every principal (other than a SYSTEM_ADMIN) belongs to exactly one.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TenantCreated is the payload published on identity.tenant.created.
type TenantCreated struct {
	TenantID string  `json:"tenant_id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}
