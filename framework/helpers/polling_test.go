package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollUntil(t *testing.T) {
	t.Run("first call succeeds without waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, PollUntil(ctx, time.Hour, func() bool { return true }))
	})

	t.Run("context expires", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := PollUntil(ctx, time.Millisecond, func() bool { return false })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
