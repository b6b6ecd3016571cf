package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/launchdarkly/eventsource"

	"github.com/sak85/API-Automation-POC/framework/helpers"
)

// Event is one server-sent event.
type Event struct {
	ID   string
	Name string
	Data string
}

// EventStream is an open server-sent events subscription.
type EventStream struct {
	url     string
	stream  *eventsource.Stream
	lastErr error
	lock    sync.Mutex
}

// Subscribe opens an event stream at path, resolved like any other request URL. The client's
// default headers are sent except for Accept, which is set to text/event-stream.
func (c *Client) Subscribe(ctx context.Context, path string) (*EventStream, error) {
	target, err := c.ResolveURL(path, nil)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	for name, values := range c.headers {
		req.Header[name] = append([]string(nil), values...)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Del("Content-Type")

	c.logger.Debugf("Opening event stream %s", target)
	stream, err := eventsource.SubscribeWithRequest("", req)
	if err != nil {
		c.logger.LogAPICall(http.MethodGet, target, 0, 0)
		return nil, &RequestFailure{Method: http.MethodGet, URL: target, Err: err}
	}
	c.logger.LogAPICall(http.MethodGet, target, http.StatusOK, 0)

	s := &EventStream{url: target, stream: stream}
	go func() {
		for err := range stream.Errors {
			s.lock.Lock()
			s.lastErr = err
			s.lock.Unlock()
		}
	}()
	return s, nil
}

// Next returns the next event, or the context's error if none arrives first.
func (s *EventStream) Next(ctx context.Context) (Event, error) {
	e, ok := helpers.TryReceiveContext(ctx, s.stream.Events).Get()
	if !ok {
		if ctx.Err() != nil {
			return Event{}, s.describeTimeout(ctx.Err())
		}
		return Event{}, fmt.Errorf("event stream %s was closed", s.url)
	}
	return Event{ID: e.Id(), Name: e.Event(), Data: e.Data()}, nil
}

// WaitFor discards events until one with the given name arrives.
func (s *EventStream) WaitFor(ctx context.Context, name string) (Event, error) {
	for {
		e, err := s.Next(ctx)
		if err != nil {
			return Event{}, err
		}
		if e.Name == name {
			return e, nil
		}
	}
}

// Close ends the subscription.
func (s *EventStream) Close() {
	s.stream.Close()
}

func (s *EventStream) describeTimeout(err error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.lastErr != nil {
		return fmt.Errorf("no event from %s: %w (last stream error: %s)", s.url, err, s.lastErr)
	}
	return fmt.Errorf("no event from %s: %w", s.url, err)
}
