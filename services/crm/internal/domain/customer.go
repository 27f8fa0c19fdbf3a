package domain

import (
	"time"

	apperrors "github.com/Hello-Vince/crm-system/pkg/errors"
)

// Customer is a tenant-visible record in the CRM. Multiple tenants may be
// granted visibility to the same record, but exactly one tenant created it.
type Customer struct {
	ID              string
	Name            string
	Email           string
	Address         string
	Latitude        *float64
	Longitude       *float64
	GeocodedAt      *time.Time
	CreatedByTenant string
	VisibleTo       []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewCustomer constructs a Customer, enforcing the invariant that the
// creating tenant is always a member of its own visibility list.
func NewCustomer(id, name, email, address, createdByTenant string, extraVisibleTo []string, now time.Time) (*Customer, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if address == "" {
		return nil, apperrors.InvalidInput("address is required")
	}
	if createdByTenant == "" {
		return nil, apperrors.InvalidInput("created_by_tenant is required")
	}

	return &Customer{
		ID:              id,
		Name:            name,
		Email:           email,
		Address:         address,
		CreatedByTenant: createdByTenant,
		VisibleTo:       dedupeVisibleTo(createdByTenant, extraVisibleTo),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// dedupeVisibleTo returns a visibility list guaranteed to contain
// createdByTenant exactly once, preserving the rest in first-seen order.
func dedupeVisibleTo(createdByTenant string, extra []string) []string {
	seen := map[string]struct{}{createdByTenant: {}}
	list := []string{createdByTenant}
	for _, id := range extra {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		list = append(list, id)
	}
	return list
}

// SetCoordinates applies a geocoding result with last-writer-wins semantics:
// any call overwrites whatever coordinates were previously recorded.
func (c *Customer) SetCoordinates(latitude, longitude float64, at time.Time) {
	c.Latitude = &latitude
	c.Longitude = &longitude
	c.GeocodedAt = &at
	c.UpdatedAt = at
}

// CustomerCreated is the payload published on crm.customer.created.
type CustomerCreated struct {
	CustomerID      string   `json:"customer_id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Address         string   `json:"address"`
	CreatedByTenant string   `json:"created_by_tenant"`
	VisibleTo       []string `json:"visible_to"`
}

// CustomerUpdated is the payload published on crm.customer.updated.
type CustomerUpdated struct {
	CustomerID string   `json:"customer_id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Address    string   `json:"address"`
	VisibleTo  []string `json:"visible_to"`
}
