package publisher

import (
	"context"
	"sync"

	r "github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/segmentio/kafka-go"
)

type MockOutbox struct {
	mu        sync.Mutex
	Events    []*r.OutboxEvent
	FetchErr  error
	MarkErr   error
	Processed []int64
}

func (m *MockOutbox) GetUnprocessedEvents(_ context.Context, limit int) ([]*r.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	var out []*r.OutboxEvent
	for _, e := range m.Events {
		if !m.processed(e.ID) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutbox) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.Processed = append(m.Processed, id)
	return nil
}

func (m *MockOutbox) ProcessedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.Processed...)
}

func (m *MockOutbox) processed(id int64) bool {
	for _, p := range m.Processed {
		if p == id {
			return true
		}
	}
	return false
}

// MockWriter fails writes for keys listed in FailKeys.
type MockWriter struct {
	mu       sync.Mutex
	Messages []kafka.Message
	FailKeys map[string]error
	Closed   bool
}

func (w *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, msg := range msgs {
		if err, ok := w.FailKeys[string(msg.Key)]; ok {
			return err
		}
		w.Messages = append(w.Messages, msg)
	}
	return nil
}

func (w *MockWriter) Close() error {
	w.Closed = true
	return nil
}

func (w *MockWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.Messages)
}
