package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	proto "github.com/ystepanoff/nrflink/protocol"
)

// All keys live under /nrflink/v1/readings/. The timestamp is zero-padded so
// lexical key order is arrival order.
const keyPrefix = "/nrflink/v1/readings/"

func readingKey(r proto.Reading) string {
	return fmt.Sprintf("%s%020d/%s", keyPrefix, r.ReceivedAt.UnixNano(), r.Sensor)
}

func timeKey(t time.Time) string {
	return fmt.Sprintf("%s%020d", keyPrefix, t.UnixNano())
}

// EtcdStore keeps one key per reading.
type EtcdStore struct {
	client *clientv3.Client
}

// NewEtcdStore dials the etcd cluster at endpoints. The caller must call Close.
func NewEtcdStore(endpoints []string) (*EtcdStore, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd dial: %w", err)
	}
	return &EtcdStore{client: client}, nil
}

func (s *EtcdStore) Save(ctx context.Context, readings ...proto.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	ops := make([]clientv3.Op, 0, len(readings))
	for _, r := range readings {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		ops = append(ops, clientv3.OpPut(readingKey(r), string(data)))
	}
	if _, err := s.client.Txn(ctx).Then(ops...).Commit(); err != nil {
		return fmt.Errorf("etcd txn put: %w", err)
	}
	return nil
}

func (s *EtcdStore) Since(ctx context.Context, t time.Time) ([]proto.Reading, error) {
	resp, err := s.client.Get(ctx, timeKey(t),
		clientv3.WithRange(clientv3.GetPrefixRangeEnd(keyPrefix)),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("etcd range: %w", err)
	}
	out := make([]proto.Reading, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var r proto.Reading
		if err := json.Unmarshal(kv.Value, &r); err != nil {
			return nil, fmt.Errorf("unmarshal %q: %w", string(kv.Key), err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *EtcdStore) Average(ctx context.Context, t time.Time) (map[string]float64, error) {
	readings, err := s.Since(ctx, t)
	if err != nil {
		return nil, err
	}
	return average(readings), nil
}

// Close releases the underlying etcd client connection.
func (s *EtcdStore) Close() error {
	return s.client.Close()
}
