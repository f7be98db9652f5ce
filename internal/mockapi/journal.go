package mockapi

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"sync"
)

// RecordedRequest is one request as the server received it
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Journal counts and keeps the requests served, for call-count assertions
type Journal struct {
	mu       sync.Mutex
	requests []RecordedRequest
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
				_ = r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			j.mu.Lock()
			j.requests = append(j.requests, RecordedRequest{
				Method: r.Method,
				Path:   r.URL.Path,
				Query:  r.URL.Query(),
				Header: r.Header.Clone(),
				Body:   body,
			})
			j.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// Count returns the number of requests received
func (j *Journal) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.requests)
}

// CountMethod returns the number of requests received with method
func (j *Journal) CountMethod(method string) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := 0
	for _, req := range j.requests {
		if req.Method == method {
			n++
		}
	}
	return n
}

// Requests returns a copy of the recorded requests in arrival order
func (j *Journal) Requests() []RecordedRequest {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]RecordedRequest, len(j.requests))
	copy(out, j.requests)
	return out
}

// Last returns the most recent request
func (j *Journal) Last() (RecordedRequest, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.requests) == 0 {
		return RecordedRequest{}, false
	}
	return j.requests[len(j.requests)-1], true
}

func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.requests = nil
}
