package store

import (
	"context"
	"sync"
	"time"

	proto "github.com/ystepanoff/nrflink/protocol"
)

// MemoryStore keeps readings in a slice guarded by a read/write mutex.
type MemoryStore struct {
	mu   sync.RWMutex
	data []proto.Reading
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Save(_ context.Context, readings ...proto.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, readings...)
	return nil
}

func (s *MemoryStore) Since(_ context.Context, t time.Time) ([]proto.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]proto.Reading, 0, len(s.data))
	for _, r := range s.data {
		if !r.ReceivedAt.Before(t) {
			out = append(out, r)
		}
	}
	sortByTime(out)
	return out, nil
}

func (s *MemoryStore) Average(ctx context.Context, t time.Time) (map[string]float64, error) {
	readings, err := s.Since(ctx, t)
	if err != nil {
		return nil, err
	}
	return average(readings), nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Close() error { return nil }
