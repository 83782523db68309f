// Package messages holds the status log that data operations append
// human-readable lines to.
package messages

import "sync"

// Sink accepts status lines. Add must be cheap and must not block.
type Sink interface {
	Add(message string)
}

// Service is an in-memory, append-only status log.
// It is safe for concurrent use; background commands append from their own
// goroutines while views read.
type Service struct {
	mu       sync.Mutex
	messages []string
}

// Compile-time check that Service implements Sink.
var _ Sink = (*Service)(nil)

// NewService creates an empty status log.
func NewService() *Service {
	return &Service{}
}

// Add appends a message.
func (s *Service) Add(message string) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
}

// Clear drops every message.
func (s *Service) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

// Messages returns a copy of the log in insertion order.
func (s *Service) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Tail returns at most the last n messages.
func (s *Service) Tail(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		return nil
	}
	start := len(s.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Add(string) {}
