package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy()

	require.False(t, p.ShouldRetry(nil, 0))
	require.True(t, p.ShouldRetry(errors.New("transient"), 1))
	require.False(t, p.ShouldRetry(errors.New("transient"), 3))
	require.False(t, p.ShouldRetry(context.Canceled, 1))
	require.False(t, p.ShouldRetry(context.DeadlineExceeded, 1))
	require.False(t, p.ShouldRetry(ErrRejected, 1))
}

func TestRetryPolicy_BackoffBounded(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy()
	for attempt := 0; attempt < 6; attempt++ {
		d := p.Backoff(attempt)
		require.Positive(t, d)
		require.LessOrEqual(t, d, p.maxDelay)
	}
}
