package browser

import (
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// networkTracker counts the requests of one tab that have started but not finished.
type networkTracker struct {
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
	lock         sync.Mutex
}

// started is called for every request, including each hop of a redirect, which reuses the ID.
func (t *networkTracker) started(id network.RequestID, at time.Time) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.inflight == nil {
		t.inflight = make(map[network.RequestID]struct{})
	}
	t.inflight[id] = struct{}{}
	t.lastActivity = at
}

func (t *networkTracker) finished(id network.RequestID, at time.Time) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.lastActivity = at
}

// idleFor returns the number of requests in flight and, if there are none, how long it has been
// since the last one started or finished. A tab that never made a request has been idle forever.
func (t *networkTracker) idleFor(now time.Time) (pending int, idle time.Duration) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if len(t.inflight) > 0 {
		return len(t.inflight), 0
	}
	if t.lastActivity.IsZero() {
		return 0, time.Duration(1<<63 - 1)
	}
	return 0, now.Sub(t.lastActivity)
}
