package helpers

import (
	"context"
	"time"

	"github.com/sak85/API-Automation-POC/framework/opt"
)

// NonBlockingSend is a shortcut for using select to do a non-blocking send. It returns
// true on success or false if the channel was full.
func NonBlockingSend[V any](ch chan<- V, value V) bool {
	select {
	case ch <- value:
		return true
	default:
		return false
	}
}

// TryReceive is a shortcut for using select to do a receive with timeout. It returns a
// Maybe that has a value if one was available, or no value if it timed out.
func TryReceive[V any](ch <-chan V, timeout time.Duration) opt.Maybe[V] {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case value := <-ch:
		return opt.Some(value)
	case <-deadline.C:
		return opt.None[V]()
	}
}

// TryReceiveContext is like TryReceive but gives up when ctx is done. A closed channel also
// yields no value.
func TryReceiveContext[V any](ctx context.Context, ch <-chan V) opt.Maybe[V] {
	select {
	case value, ok := <-ch:
		return opt.FromLookup(value, ok)
	case <-ctx.Done():
		return opt.None[V]()
	}
}

// RequireValue tries to receive a value and returns it if successful, or causes the test
// to fail and terminate immediately if it timed out.
func RequireValue[V any](t TestContext, ch <-chan V, timeout time.Duration) V {
	var empty V
	maybeValue := TryReceive(ch, timeout)
	if !maybeValue.IsDefined() {
		t.Errorf("timed out waiting for value of type %T", empty)
		t.FailNow()
	}
	return maybeValue.Value()
}
