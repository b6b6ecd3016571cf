package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/framework"
)

// Resource names served by the API.
const (
	ResourceUsers    = "users"
	ResourcePosts    = "posts"
	ResourceComments = "comments"
)

const maxDelay = 30 * time.Second

// Server is the mock API. It can be used directly as an http.Handler, or started on a local port
// with Start.
type Server struct {
	users       *collection
	posts       *collection
	comments    *collection
	stream      *changeStream
	recorder    *requestRecorder
	handler     http.Handler
	httpServer  *http.Server
	listenerURL string
	logger      framework.Logger
	closeOnce   sync.Once
	lock        sync.Mutex
}

// New creates a Server seeded with the standard data set. The logger may be nil.
func New(logger framework.Logger) *Server {
	if logger == nil {
		logger = framework.NullLogger()
	}
	s := &Server{
		recorder: newRequestRecorder(logger),
		logger:   logger,
	}
	s.seed()
	s.stream = newChangeStream(s.counts, logger)

	router := mux.NewRouter()
	router.Handle("/events", s.stream).Methods(http.MethodGet)
	router.HandleFunc("/pages/{name}", s.servePage).Methods(http.MethodGet)
	router.HandleFunc("/html/users", s.serveUserTable).Methods(http.MethodGet)
	router.HandleFunc("/status/{code:[2-5][0-9][0-9]}", s.serveStatus)
	router.HandleFunc("/delay/{ms:[0-9]+}", s.serveDelay).Methods(http.MethodGet)
	router.HandleFunc("/users/{id:[0-9]+}/posts", s.serveNested(ResourcePosts, "userId")).Methods(http.MethodGet)
	router.HandleFunc("/posts/{id:[0-9]+}/comments", s.serveNested(ResourceComments, "postId")).Methods(http.MethodGet)
	for _, name := range []string{ResourceUsers, ResourcePosts, ResourceComments} {
		router.HandleFunc("/"+name, s.serveList(name)).Methods(http.MethodGet)
		router.HandleFunc("/"+name, s.serveCreate(name)).Methods(http.MethodPost)
		item := "/" + name + "/{id:[0-9]+}"
		router.HandleFunc(item, s.serveGet(name)).Methods(http.MethodGet)
		router.HandleFunc(item, s.serveUpdate(name, false)).Methods(http.MethodPut)
		router.HandleFunc(item, s.serveUpdate(name, true)).Methods(http.MethodPatch)
		router.HandleFunc(item, s.serveDelete(name)).Methods(http.MethodDelete)
	}
	s.handler = s.recorder.middleware(router)
	return s
}

// Start creates a Server and listens on the given address, such as "127.0.0.1:0".
func Start(addr string, logger framework.Logger) (*Server, error) {
	s := New(logger)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mock API could not listen on %s: %w", addr, err)
	}
	s.httpServer = &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	s.listenerURL = "http://" + listener.Addr().String()
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("Mock API stopped: %s", err)
		}
	}()
	s.logger.Printf("Mock API listening at %s", s.listenerURL)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// URL returns the base URL of a Server created with Start, or "" otherwise.
func (s *Server) URL() string {
	return s.listenerURL
}

// Close stops the listener, if any, and ends all event streams.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.stream.Close()
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

// Reset restores the standard data set and clears the request history.
func (s *Server) Reset() {
	s.seed()
	s.recorder.reset()
}

// Requests returns every request received so far, oldest first.
func (s *Server) Requests() []RecordedRequest {
	return s.recorder.requests()
}

// AwaitRequest waits for the next request that has not already been awaited.
func (s *Server) AwaitRequest(timeout time.Duration) (RecordedRequest, error) {
	return s.recorder.await(timeout)
}

// Publish sends a custom event to every event stream subscriber.
func (s *Server) Publish(name string, data interface{}) {
	s.stream.Publish(name, data)
}

func (s *Server) seed() {
	posts := seedPostValues()
	s.lock.Lock()
	s.users = newCollection(ResourceUsers, seedUserValues())
	s.posts = newCollection(ResourcePosts, posts)
	s.comments = newCollection(ResourceComments, seedCommentValues(len(posts)))
	s.lock.Unlock()
}

func (s *Server) collection(name string) *collection {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch name {
	case ResourceUsers:
		return s.users
	case ResourcePosts:
		return s.posts
	default:
		return s.comments
	}
}

func (s *Server) counts() map[string]int {
	return map[string]int{
		ResourceUsers:    s.collection(ResourceUsers).count(),
		ResourcePosts:    s.collection(ResourcePosts).count(),
		ResourceComments: s.collection(ResourceComments).count(),
	}
}

func (s *Server) serveList(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, limit := splitQuery(r.URL.Query())
		items := s.collection(name).list(filter)
		if limit >= 0 && limit < len(items) {
			items = items[:limit]
		}
		writeJSON(w, http.StatusOK, ldvalue.ArrayOf(items...))
	}
}

func (s *Server) serveNested(name, parentField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := url.Values{parentField: {mux.Vars(r)["id"]}}
		writeJSON(w, http.StatusOK, ldvalue.ArrayOf(s.collection(name).list(filter)...))
	}
}

func (s *Server) serveGet(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := s.collection(name).get(pathID(r))
		if !ok {
			writeJSON(w, http.StatusNotFound, ldvalue.ObjectBuild().Build())
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) serveCreate(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readObject(w, r)
		if !ok {
			return
		}
		item := s.collection(name).create(body)
		s.logger.Printf("Created %s %d", name, item.GetByKey("id").IntValue())
		s.stream.Publish(EventCreated, changeEvent(name, item))
		writeJSON(w, http.StatusCreated, item)
	}
}

func (s *Server) serveUpdate(name string, merge bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readObject(w, r)
		if !ok {
			return
		}
		c := s.collection(name)
		var item ldvalue.Value
		if merge {
			item, ok = c.patch(pathID(r), body)
		} else {
			item, ok = c.replace(pathID(r), body)
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, ldvalue.ObjectBuild().Build())
			return
		}
		s.stream.Publish(EventUpdated, changeEvent(name, item))
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) serveDelete(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		if !s.collection(name).delete(id) {
			writeJSON(w, http.StatusNotFound, ldvalue.ObjectBuild().Build())
			return
		}
		s.stream.Publish(EventDeleted, changeEvent(name, ldvalue.ObjectBuild().SetInt("id", id).Build()))
		writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().Build())
	}
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	code, _ := strconv.Atoi(mux.Vars(r)["code"])
	writeJSON(w, code, ldvalue.ObjectBuild().SetInt("status", code).SetString("statusText", http.StatusText(code)).Build())
}

func (s *Server) serveDelay(w http.ResponseWriter, r *http.Request) {
	ms, _ := strconv.Atoi(mux.Vars(r)["ms"])
	delay := time.Duration(ms) * time.Millisecond
	if delay > maxDelay {
		delay = maxDelay
	}
	select {
	case <-time.After(delay):
	case <-r.Context().Done():
		return
	}
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().SetInt("delayMs", int(delay/time.Millisecond)).Build())
}

func changeEvent(resource string, item ldvalue.Value) ldvalue.Value {
	return ldvalue.ObjectBuild().SetString("resource", resource).Set("data", item).Build()
}

// splitQuery separates filter parameters from control parameters. "_limit" caps the number of
// results; other parameters starting with "_" are ignored.
func splitQuery(query url.Values) (url.Values, int) {
	filter := url.Values{}
	limit := -1
	for name, values := range query {
		switch {
		case name == "_limit":
			if n, err := strconv.Atoi(values[0]); err == nil && n >= 0 {
				limit = n
			}
		case strings.HasPrefix(name, "_"):
		default:
			filter[name] = values
		}
	}
	return filter, limit
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func readObject(w http.ResponseWriter, r *http.Request) (ldvalue.Value, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return ldvalue.Null(), false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return ldvalue.ObjectBuild().Build(), true
	}
	var body ldvalue.Value
	if err := json.Unmarshal(data, &body); err != nil || body.Type() != ldvalue.ObjectType {
		writeJSON(w, http.StatusBadRequest, ldvalue.ObjectBuild().SetString("error", "request body must be a JSON object").Build())
		return ldvalue.Null(), false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, body ldvalue.Value) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body.JSONString()))
}
