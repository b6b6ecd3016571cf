package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/launchdarkly/eventsource"

	"github.com/sak85/API-Automation-POC/framework"
)

const changesChannel = "changes"

// Event names published on the change stream.
const (
	EventConnected = "connected"
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventDeleted   = "deleted"
)

type eventSourceDebugLogger struct {
	logger framework.Logger
}

func (l eventSourceDebugLogger) Println(args ...interface{}) {
	l.logger.Printf("%s", fmt.Sprintln(args...))
}

func (l eventSourceDebugLogger) Printf(format string, args ...interface{}) {
	l.logger.Printf(format, args...)
}

// changeStream publishes resource changes as server-sent events. Every new subscriber first
// receives a "connected" event describing the current resource counts.
type changeStream struct {
	streams     *eventsource.Server
	snapshot    func() map[string]int
	lastID      int64
	debugLogger framework.Logger
}

type eventImpl struct {
	id   string
	name string
	data interface{}
}

func newChangeStream(snapshot func() map[string]int, debugLogger framework.Logger) *changeStream {
	streams := eventsource.NewServer()
	streams.ReplayAll = true
	streams.Logger = eventSourceDebugLogger{debugLogger}

	s := &changeStream{
		streams:     streams,
		snapshot:    snapshot,
		debugLogger: debugLogger,
	}
	streams.Register(changesChannel, s)
	return s
}

func (s *changeStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.streams.Handler(changesChannel)(w, r)
	s.debugLogger.Printf("End of stream request")
}

// Publish sends an event to every subscriber.
func (s *changeStream) Publish(name string, data interface{}) {
	event := eventImpl{id: s.nextID(), name: name, data: data}
	s.logEvent(event)
	s.streams.Publish([]string{changesChannel}, event)
}

func (s *changeStream) Replay(channel, id string) chan eventsource.Event {
	e := eventImpl{id: s.nextID(), name: EventConnected, data: map[string]interface{}{"counts": s.snapshot()}}

	// The eventsource server expects a channel here; it is pre-populated with the one event every
	// new connection gets.
	eventsCh := make(chan eventsource.Event, 1)
	s.logEvent(e)
	eventsCh <- e
	close(eventsCh)
	return eventsCh
}

func (s *changeStream) Close() {
	s.streams.Close()
}

func (s *changeStream) nextID() string {
	return strconv.FormatInt(atomic.AddInt64(&s.lastID, 1), 10)
}

func (s *changeStream) logEvent(e eventsource.Event) {
	s.debugLogger.Printf("sending %s event with data: %s", e.Event(), e.Data())
}

func (e eventImpl) Event() string { return e.name }
func (e eventImpl) Id() string    { return e.id } //nolint:stylecheck
func (e eventImpl) Data() string {
	if raw, ok := e.data.(json.RawMessage); ok {
		return string(raw)
	}
	bytes, _ := json.Marshal(e.data)
	return string(bytes)
}
