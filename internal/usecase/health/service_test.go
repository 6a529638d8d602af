package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCachePinger struct {
	err   error
	calls int
}

func (m *mockCachePinger) Ping(_ context.Context) error {
	m.calls++
	return m.err
}

// --- Tests ---

func TestCheck_NoCache(t *testing.T) {
	svc := New(nil, "2025.08-1")
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["engine"] != CheckOK {
		t.Errorf("expected engine %q, got %q", CheckOK, r.Checks["engine"])
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("cache check must be absent when the cache is disabled")
	}
	if r.CalibrationVersion != "2025.08-1" {
		t.Errorf("CalibrationVersion = %q", r.CalibrationVersion)
	}
}

func TestCheck_CacheHealthy(t *testing.T) {
	svc := New(&mockCachePinger{}, "v")
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockCachePinger{err: errors.New("conn refused")}, "v")
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
	if r.Checks["engine"] != CheckOK {
		t.Errorf("engine stays ok when the cache is down, got %q", r.Checks["engine"])
	}
}

func TestCheck_Repeatable(t *testing.T) {
	p := &mockCachePinger{}
	svc := New(p, "v")
	for i := 0; i < 3; i++ {
		if r := svc.Check(context.Background()); r.Status != Healthy {
			t.Fatalf("call %d: status %q", i, r.Status)
		}
	}
	if p.calls != 3 {
		t.Errorf("expected 3 pings, got %d", p.calls)
	}
}
