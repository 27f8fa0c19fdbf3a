package service

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	pkgkafka "github.com/Hello-Vince/crm-system/pkg/kafka"
)

func TestClassifyError_ConnectionErrorIsRetryable(t *testing.T) {
	for _, code := range []string{"08006", "53300", "57P01"} {
		pgErr := &pgconn.PgError{Code: code}

		err := classifyError(pgErr)

		var retryable *pkgkafka.Retryable
		assert.ErrorAs(t, err, &retryable)
	}
}

func TestClassifyError_NonPgErrorIsRetryable(t *testing.T) {
	err := classifyError(errors.New("boom"))

	var retryable *pkgkafka.Retryable
	assert.ErrorAs(t, err, &retryable)
}
