// Package crmclient calls the crm service's internal coordinates RPC through
// a circuit breaker, translating the outcome into the Retryable/Permanent
// vocabulary the consumer runtime understands.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Hello-Vince/crm-system/pkg/httpclient"
	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
)

// Client relays geocoded coordinates to crm's internal RPC.
type Client struct {
	baseURL string
	cb      *httpclient.CircuitBreakerClient
}

// New builds a Client that calls baseURL (crm's internal RPC origin)
// through a circuit breaker.
func New(baseURL string, logger *slog.Logger) *Client {
	httpClient := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(httpClient, httpclient.DefaultCircuitBreakerConfig("crm-internal"), logger)
	return &Client{baseURL: baseURL, cb: cb}
}

type updateCoordinatesRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateCoordinates PATCHes /internal/customers/{id}/coordinates on crm.
// The circuit breaker already treats a 5xx response, a transport error, or a
// timeout as a single failure class, so all three surface here as Retryable;
// any other non-2xx response (a 4xx) survives the breaker and is classified
// Permanent, with httpclient.ParseResponseError supplying the cause.
func (c *Client) UpdateCoordinates(ctx context.Context, customerID string, latitude, longitude float64) error {
	body, err := json.Marshal(updateCoordinatesRequest{Latitude: latitude, Longitude: longitude})
	if err != nil {
		return pkgkafka.NewPermanent("marshal coordinates request", err)
	}

	url := fmt.Sprintf("%s/internal/customers/%s/coordinates", c.baseURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return pkgkafka.NewPermanent("build coordinates request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cb.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return pkgkafka.NewRetryable("crm circuit breaker open", err)
		}
		return pkgkafka.NewRetryable("crm coordinates request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return pkgkafka.NewPermanent("crm rejected coordinates update", httpclient.ParseResponseError(resp, "crm"))
}
