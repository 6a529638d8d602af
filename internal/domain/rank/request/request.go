// Package request holds a validated ranking call.
package request

import (
	"fmt"

	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
)

// Request bundles params, query and candidate pool.
type Request struct {
	params     params.Params
	query      query.Query
	candidates []candidate.Candidate
}

// New checks the pool-level invariants: candidate ids are unique and the
// pool does not exceed maxCandidates. maxCandidates <= 0 disables the cap.
func New(p params.Params, q query.Query, cands []candidate.Candidate, maxCandidates int) (Request, error) {
	if maxCandidates > 0 && len(cands) > maxCandidates {
		return Request{}, domain.NewValidationError("candidates",
			fmt.Sprintf("too many candidates (max %d)", maxCandidates))
	}
	seen := make(map[string]int, len(cands))
	for i, c := range cands {
		if j, dup := seen[c.ID()]; dup {
			return Request{}, domain.NewValidationError(fmt.Sprintf("candidates[%d].id", i),
				fmt.Sprintf("duplicate id %q (first at candidates[%d])", c.ID(), j))
		}
		seen[c.ID()] = i
	}
	return Request{params: p, query: q, candidates: cands}, nil
}

// Params returns the tuning knobs.
func (r Request) Params() params.Params { return r.params }

// Query returns the live context.
func (r Request) Query() query.Query { return r.query }

// Candidates returns the pool in request order.
func (r Request) Candidates() []candidate.Candidate { return r.candidates }
