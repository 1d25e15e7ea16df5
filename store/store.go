// Package store persists expanded sensor readings. Implementations include an
// in-memory store (for tests and short sessions), PostgreSQL and etcd.
package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	proto "github.com/ystepanoff/nrflink/protocol"
)

// Store appends readings and queries them by arrival time.
type Store interface {
	Save(ctx context.Context, readings ...proto.Reading) error
	// Since returns readings received at or after t, oldest first.
	Since(ctx context.Context, t time.Time) ([]proto.Reading, error)
	// Average returns the mean value per sensor over readings received at or after t.
	Average(ctx context.Context, t time.Time) (map[string]float64, error)
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	Kind      string // memory | postgres | etcd
	DSN       string
	Endpoints []string
}

// Open returns the backend named by opts.Kind. An empty kind means memory.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		s, err := NewPostgresStore(opts.DSN)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "etcd":
		return NewEtcdStore(opts.Endpoints)
	default:
		return nil, fmt.Errorf("store: unknown kind %q", opts.Kind)
	}
}

func average(readings []proto.Reading) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range readings {
		sums[r.Sensor] += r.Value
		counts[r.Sensor]++
	}
	for k, n := range counts {
		sums[k] /= float64(n)
	}
	return sums
}

func sortByTime(readings []proto.Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].ReceivedAt.Before(readings[j].ReceivedAt)
	})
}
