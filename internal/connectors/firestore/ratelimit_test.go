package firestore

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

func TestRateLimiter_Wait(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 10})
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Wait(context.Background()))
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{})
	assert.Equal(t, DefaultRateLimit.BurstSize, r.limiter.Burst())
}

func TestRateLimiter_Backoff(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 10})
	assert.True(t, r.Allow())

	r.RecordRateLimitError(60)
	assert.False(t, r.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, WrapError(plain))

	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		err := WrapError(&googleapi.Error{Code: tt.code})
		assert.ErrorIs(t, err, tt.want)
		var gerr *googleapi.Error
		assert.ErrorAs(t, err, &gerr)
	}

	other := &googleapi.Error{Code: http.StatusInternalServerError}
	assert.Equal(t, error(other), WrapError(other))
}

func TestRetryAfter(t *testing.T) {
	err := &googleapi.Error{Code: 429, Header: http.Header{"Retry-After": []string{"12"}}}
	assert.Equal(t, 12, retryAfter(err))
	assert.Equal(t, 0, retryAfter(&googleapi.Error{Code: 429}))
	assert.Equal(t, 0, retryAfter(errors.New("x")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&googleapi.Error{Code: http.StatusNotFound}))
	assert.True(t, IsNotFound(domain.ErrNotFound))
	assert.False(t, IsNotFound(&googleapi.Error{Code: http.StatusForbidden}))
}
