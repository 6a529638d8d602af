package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/calibration"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
)

var now = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

const sigNoModule = "ModuleNotFoundError: No module named '<module>'"

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool        { return &v }

func daysAgo(d float64) time.Time {
	return now.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

func newQuery(t *testing.T, mod func(*query.Input)) query.Query {
	t.Helper()
	in := query.Input{
		StudentID: "student-1",
		PEMType:   "ModuleNotFoundError",
		Skeleton:  sigNoModule,
		Timestamp: now,
	}
	if mod != nil {
		mod(&in)
	}
	q, err := query.New(in)
	require.NoError(t, err)
	return q
}

func newCandidate(t *testing.T, id string, mod func(*candidate.Input)) candidate.Candidate {
	t.Helper()
	in := candidate.Input{
		ID:               id,
		VectorSimilarity: 0.5,
		Skeleton:         sigNoModule,
		Timestamp:        daysAgo(3),
	}
	if mod != nil {
		mod(&in)
	}
	c, err := candidate.New(in)
	require.NoError(t, err)
	return c
}

func newRequest(t *testing.T, o params.Overrides, q query.Query, cands ...candidate.Candidate) request.Request {
	t.Helper()
	p, err := params.New(o)
	require.NoError(t, err)
	r, err := request.New(p, q, cands, 0)
	require.NoError(t, err)
	return r
}

func newEngine(t *testing.T, mod func(*calibration.Calibration)) *Engine {
	t.Helper()
	cal := calibration.Default()
	if mod != nil {
		mod(&cal)
	}
	e, err := NewEngine(cal)
	require.NoError(t, err)
	return e
}
