package crmclient

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestUpdateCoordinates_SucceedsOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := New(server.URL, testLogger())

	err := client.UpdateCoordinates(context.Background(), "cust-1", -33.8688, 151.2093)

	assert.NoError(t, err)
}

func TestUpdateCoordinates_ClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"customer not found"}}`))
	}))
	defer server.Close()

	client := New(server.URL, testLogger())

	err := client.UpdateCoordinates(context.Background(), "cust-1", -33.8688, 151.2093)

	var permanent *pkgkafka.Permanent
	assert.ErrorAs(t, err, &permanent)
}

func TestUpdateCoordinates_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`internal error`))
	}))
	defer server.Close()

	client := New(server.URL, testLogger())

	err := client.UpdateCoordinates(context.Background(), "cust-1", -33.8688, 151.2093)

	var retryable *pkgkafka.Retryable
	assert.ErrorAs(t, err, &retryable)
}

func TestUpdateCoordinates_TransportErrorIsRetryable(t *testing.T) {
	client := New("http://127.0.0.1:1", testLogger())

	err := client.UpdateCoordinates(context.Background(), "cust-1", -33.8688, 151.2093)

	var retryable *pkgkafka.Retryable
	assert.ErrorAs(t, err, &retryable)
}
