package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

func TestResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ResultSuccess},
		{"not found", fmt.Errorf("Post: %w", domain.ErrNotFound), "not_found"},
		{"invalid state", domain.ErrInvalidState, "invalid_state"},
		{"insufficient payment", domain.ErrInsufficientPayment, "insufficient_payment"},
		{"validation", fmt.Errorf("x: %w", domain.ErrValidation), "validation"},
		{"amount", domain.ErrInvalidAmount, "validation"},
		{"contention", domain.ErrConcurrentUpdate, "contention"},
		{"other", errors.New("boom"), ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Result(tt.err))
		})
	}
}

func TestObserveOperation(t *testing.T) {
	Init(nil)

	before := testutil.ToFloat64(operationTotal.WithLabelValues("close", "insufficient_payment"))
	ObserveOperation("close", domain.ErrInsufficientPayment, 5*time.Millisecond)
	after := testutil.ToFloat64(operationTotal.WithLabelValues("close", "insufficient_payment"))

	assert.Equal(t, before+1, after)
}
