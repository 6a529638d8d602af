package rankcache

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/pemrank/internal/db"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data  map[string][]byte
	ttls  map[string]time.Duration
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

var ts = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func newTestRequest(t *testing.T, studentID string, sims ...float64) request.Request {
	t.Helper()
	q, err := query.New(query.Input{StudentID: studentID, PEMType: "E", Skeleton: "boom <x>", Timestamp: ts})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	cands := make([]candidate.Candidate, 0, len(sims))
	for i, s := range sims {
		c, err := candidate.New(candidate.Input{
			Index:            i,
			ID:               string(rune('a' + i)),
			VectorSimilarity: s,
			Skeleton:         "boom <x>",
			Timestamp:        ts.Add(-72 * time.Hour),
		})
		if err != nil {
			t.Fatalf("candidate: %v", err)
		}
		cands = append(cands, c)
	}
	r, err := request.New(params.Default(), q, cands, 0)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return r
}
