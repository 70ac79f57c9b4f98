package testutil

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"
)

// StreamRecorder is a ResponseWriter for handlers that keep writing after
// the test starts reading, such as event streams. It is safe for concurrent
// use.
type StreamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	buf    bytes.Buffer
	writes chan struct{}
}

// NewStreamRecorder creates an empty StreamRecorder.
func NewStreamRecorder() *StreamRecorder {
	return &StreamRecorder{header: http.Header{}, writes: make(chan struct{}, 1)}
}

func (s *StreamRecorder) Header() http.Header { return s.header }

func (s *StreamRecorder) WriteHeader(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code == 0 {
		s.code = code
	}
}

func (s *StreamRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	if s.code == 0 {
		s.code = http.StatusOK
	}
	n, err := s.buf.Write(p)
	s.mu.Unlock()
	select {
	case s.writes <- struct{}{}:
	default:
	}
	return n, err
}

// Flush satisfies http.Flusher.
func (s *StreamRecorder) Flush() {}

// Code returns the status written so far, or 0.
func (s *StreamRecorder) Code() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Body returns everything written so far.
func (s *StreamRecorder) Body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// WaitFor blocks until the body contains substr n times, or wait passes.
func (s *StreamRecorder) WaitFor(substr string, n int, wait time.Duration) bool {
	deadline := time.After(wait)
	for {
		if strings.Count(s.Body(), substr) >= n {
			return true
		}
		select {
		case <-s.writes:
		case <-deadline:
			return false
		}
	}
}
