package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNetworkTrackerCountsRequestsInFlight(t *testing.T) {
	var tracker networkTracker
	start := time.Unix(1700000000, 0)

	pending, idle := tracker.idleFor(start)
	assert.Equal(t, 0, pending)
	assert.Greater(t, idle, time.Hour)

	tracker.started("1", start)
	tracker.started("2", start)
	tracker.started("1", start.Add(10*time.Millisecond))
	pending, idle = tracker.idleFor(start.Add(time.Second))
	assert.Equal(t, 2, pending)
	assert.Equal(t, time.Duration(0), idle)

	tracker.finished("1", start.Add(100*time.Millisecond))
	tracker.finished("2", start.Add(200*time.Millisecond))
	tracker.finished("3", start.Add(900*time.Millisecond))
	pending, idle = tracker.idleFor(start.Add(time.Second))
	assert.Equal(t, 0, pending)
	assert.Equal(t, 800*time.Millisecond, idle)
}
