// Package mocklogger provides an slog handler that records log records
// in memory for test inspection.
package mocklogger

import (
	"context"
	"log/slog"
	"sync"
)

// MockHandler records every log record it handles.
type MockHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

// Enabled implements slog.Handler.
func (h *MockHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *MockHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

// WithAttrs implements slog.Handler.
func (h *MockHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

// WithGroup implements slog.Handler.
func (h *MockHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Messages returns the recorded messages in order.
func (h *MockHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := make([]string, len(h.records))
	for i, r := range h.records {
		msgs[i] = r.Message
	}
	return msgs
}

// Contains reports whether any recorded message equals msg.
func (h *MockHandler) Contains(msg string) bool {
	for _, m := range h.Messages() {
		if m == msg {
			return true
		}
	}
	return false
}

// Reset forgets recorded records.
func (h *MockHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

// NewMockHandler creates an empty recording handler.
func NewMockHandler() *MockHandler {
	return &MockHandler{}
}

// NewMockLogger creates a logger backed by a fresh recording handler.
func NewMockLogger() *slog.Logger {
	return slog.New(NewMockHandler())
}
