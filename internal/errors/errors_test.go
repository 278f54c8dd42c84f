package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Categorize(nil))
	})

	t.Run("wrapped categorized error is found", func(t *testing.T) {
		base := NewQuoteUnavailableError("BTC", "ETH", "target price is zero")
		wrapped := fmt.Errorf("quoting: %w", base)

		got := Categorize(wrapped)
		require.NotNil(t, got)
		assert.Equal(t, CodeQuoteUnavailable, got.Code)
		assert.Equal(t, http.StatusUnprocessableEntity, got.StatusCode)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := Categorize(stderrors.New("boom"))
		assert.Equal(t, CodeInternalError, got.Code)
		assert.True(t, IsSystemError(got))
	})
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewEmptyPortfolioError("top asset"))
	assert.True(t, HasCode(err, CodeEmptyPortfolio))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(stderrors.New("x"), CodeNotFound))
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		user   bool
	}{
		{"invalid parameter", NewInvalidParameterError("amount", "must be positive"), http.StatusBadRequest, true},
		{"not found", NewNotFoundError("asset", "DOGE"), http.StatusNotFound, true},
		{"rate limit", NewRateLimitError(20), http.StatusTooManyRequests, true},
		{"empty portfolio", NewEmptyPortfolioError("brief"), http.StatusUnprocessableEntity, true},
		{"unavailable", NewServiceUnavailableError("advisor"), http.StatusServiceUnavailable, false},
		{"provider", NewProviderError("gemini", stderrors.New("eof")), http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatusCode(tt.err))
			assert.Equal(t, tt.user, IsUserError(tt.err))
			assert.Equal(t, !tt.user, IsSystemError(tt.err))
		})
	}
}

func TestErrorString(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := NewInternalError("publish failed", cause)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR: publish failed")
	assert.Contains(t, err.Error(), "dial tcp: refused")
	assert.ErrorIs(t, err, cause)

	svc := NewNotFoundError("notification", "42").ToServiceError()
	assert.Equal(t, CodeNotFound, svc.Code)
	assert.Equal(t, "42", svc.Details["id"])
}
