package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseHandler(events ...Event) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(200)
		for _, e := range events {
			_, _ = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Name, e.Data)
		}
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
}

func TestSubscribeReceivesNamedEvent(t *testing.T) {
	handler := sseHandler(
		Event{ID: "1", Name: "ping", Data: "{}"},
		Event{ID: "2", Name: "user-created", Data: `{"id":11}`},
	)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		c := newTestClient(t, server.URL, &sleepRecorder{})
		stream, err := c.Subscribe(context.Background(), "/events")
		require.NoError(t, err)
		defer stream.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e, err := stream.WaitFor(ctx, "user-created")
		require.NoError(t, err)
		assert.Equal(t, Event{ID: "2", Name: "user-created", Data: `{"id":11}`}, e)
	})
}

func TestSubscribeTimesOutWithoutEvent(t *testing.T) {
	httphelpers.WithServer(sseHandler(), func(server *httptest.Server) {
		c := newTestClient(t, server.URL, &sleepRecorder{})
		stream, err := c.Subscribe(context.Background(), "/events")
		require.NoError(t, err)
		defer stream.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = stream.WaitFor(ctx, "never")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSubscribeFailsOnErrorStatus(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(404), func(server *httptest.Server) {
		c := newTestClient(t, server.URL, &sleepRecorder{})
		_, err := c.Subscribe(context.Background(), "/missing")
		var rf *RequestFailure
		require.ErrorAs(t, err, &rf)
	})
}
