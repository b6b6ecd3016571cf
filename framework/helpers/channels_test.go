package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sak85/API-Automation-POC/framework/opt"
)

func TestNonBlockingSend(t *testing.T) {
	ch1 := make(chan string)
	assert.False(t, NonBlockingSend(ch1, "a"))

	ch2 := make(chan string, 1)
	assert.True(t, NonBlockingSend(ch2, "a"))
	assert.Equal(t, "a", <-ch2)
}

func TestTryReceive(t *testing.T) {
	ch := make(chan string, 1)
	assert.Equal(t, opt.None[string](), TryReceive(ch, time.Millisecond))

	ch <- "a"
	assert.Equal(t, opt.Some("a"), TryReceive(ch, time.Millisecond))

	go func() {
		time.Sleep(time.Millisecond * 50)
		ch <- "b"
	}()
	assert.Equal(t, opt.Some("b"), TryReceive(ch, time.Second))
}

func TestTryReceiveContext(t *testing.T) {
	ch := make(chan string, 1)
	ch <- "a"
	assert.Equal(t, opt.Some("a"), TryReceiveContext(context.Background(), ch))

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.Equal(t, opt.None[string](), TryReceiveContext(ctx, ch))

	close(ch)
	assert.Equal(t, opt.None[string](), TryReceiveContext(context.Background(), ch))
}

func TestRequireValue(t *testing.T) {
	tr1 := TestRecorder{PanicOnTerminate: true}
	ch := make(chan string, 1)
	assert.PanicsWithValue(t, &tr1, func() { _ = RequireValue(&tr1, ch, time.Millisecond) })
	if assert.Error(t, tr1.Err()) {
		assert.Contains(t, tr1.Err().Error(), "waiting for value of type string")
	}

	tr2 := TestRecorder{PanicOnTerminate: true}
	ch <- "a"
	assert.Equal(t, "a", RequireValue(&tr2, ch, time.Millisecond))
	assert.NoError(t, tr2.Err())
}
