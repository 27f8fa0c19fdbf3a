// Package domain holds the geocode attempt entity. A geocode attempt is
// append-only: there is no update or delete path anywhere in this service.
package domain

import (
	"fmt"
	"time"
)

// Geocode attempt outcomes.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// GeocodeAttempt records the outcome of resolving one customer's address to
// coordinates and relaying the result to the CRM service.
type GeocodeAttempt struct {
	ID            string
	CustomerID    string
	Address       string
	Latitude      *float64
	Longitude     *float64
	Status        string
	FailureReason string
	CreatedAt     time.Time
}

// NewSucceededAttempt constructs a record of a successful geocode + relay.
func NewSucceededAttempt(id, customerID, address string, latitude, longitude float64, now time.Time) (*GeocodeAttempt, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer id is required")
	}
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	return &GeocodeAttempt{
		ID:         id,
		CustomerID: customerID,
		Address:    address,
		Latitude:   &latitude,
		Longitude:  &longitude,
		Status:     StatusSucceeded,
		CreatedAt:  now,
	}, nil
}
