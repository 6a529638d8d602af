package request

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
)

var ts = time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

func mustQuery(t *testing.T) query.Query {
	t.Helper()
	q, err := query.New(query.Input{StudentID: "s", PEMType: "E", Skeleton: "e", Timestamp: ts})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	return q
}

func mustCandidates(t *testing.T, ids ...string) []candidate.Candidate {
	t.Helper()
	out := make([]candidate.Candidate, 0, len(ids))
	for i, id := range ids {
		c, err := candidate.New(candidate.Input{Index: i, ID: id, Skeleton: "e", Timestamp: ts})
		if err != nil {
			t.Fatalf("candidate: %v", err)
		}
		out = append(out, c)
	}
	return out
}

func TestNew_Valid(t *testing.T) {
	r, err := New(params.Default(), mustQuery(t), mustCandidates(t, "a", "b"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Candidates()) != 2 {
		t.Errorf("Candidates() len = %d", len(r.Candidates()))
	}
	if r.Params().K() != params.DefaultK {
		t.Errorf("Params().K() = %d", r.Params().K())
	}
	if r.Query().StudentID() != "s" {
		t.Errorf("Query().StudentID() = %q", r.Query().StudentID())
	}
}

func TestNew_EmptyPool(t *testing.T) {
	if _, err := New(params.Default(), mustQuery(t), nil, 10); err != nil {
		t.Fatalf("empty pool is not an error: %v", err)
	}
}

func TestNew_DuplicateID(t *testing.T) {
	_, err := New(params.Default(), mustQuery(t), mustCandidates(t, "a", "b", "a"), 10)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "candidates[2].id") {
		t.Errorf("error should name the duplicate: %v", err)
	}
}

func TestNew_TooManyCandidates(t *testing.T) {
	_, err := New(params.Default(), mustQuery(t), mustCandidates(t, "a", "b", "c"), 2)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
