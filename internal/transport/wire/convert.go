package wire

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
	apiv1 "github.com/kailas-cloud/pemrank/pkg/api/v1"
)

// Bind validates req and converts it into a domain request.
func (b *Binder) Bind(req *apiv1.RankRequest) (request.Request, error) {
	if err := b.Validate(req); err != nil {
		return request.Request{}, err
	}

	p, err := params.New(overridesFromAPI(req.Params))
	if err != nil {
		return request.Request{}, err
	}

	q, err := query.New(queryFromAPI(req.Query))
	if err != nil {
		return request.Request{}, err
	}

	cands := make([]candidate.Candidate, 0, len(req.Candidates))
	for i := range req.Candidates {
		in, err := candidateFromAPI(i, &req.Candidates[i], req.Query.CurrentVector)
		if err != nil {
			return request.Request{}, err
		}
		c, err := candidate.New(in)
		if err != nil {
			return request.Request{}, err
		}
		cands = append(cands, c)
	}

	return request.New(p, q, cands, b.maxCandidates)
}

func overridesFromAPI(p *apiv1.RankParams) params.Overrides {
	if p == nil {
		return params.Overrides{}
	}
	return params.Overrides{
		K:                       p.K,
		MMRLambda:               p.MMRLambda,
		ConfidenceFloor:         p.ConfidenceFloor,
		RecencyHalfLifeDays:     p.RecencyHalfLifeDays,
		SkeletonFilterThreshold: p.SkeletonFilterThreshold,
		AllowRepeatDepth:        p.AllowRepeatDepth,
		AllowRepeatMinHours:     p.AllowRepeatMinHours,
		SuccessBonusAlpha:       p.SuccessBonusAlpha,
	}
}

func queryFromAPI(q *apiv1.QueryContext) query.Input {
	return query.Input{
		StudentID:         q.StudentID,
		PEMType:           q.PEMType,
		Skeleton:          q.PEMSkeleton,
		Timestamp:         q.Timestamp.Time,
		FileHash:          deref(q.ActiveFileHash),
		ProjectHash:       deref(q.WorkingDirHash),
		FileExt:           q.ActiveFileExt,
		DirectoryTree:     q.DirectoryTree,
		Packages:          q.Packages,
		PythonVersion:     deref(q.PythonVersion),
		ResolutionDepth:   q.ResolutionDepth,
		CurrentPEMPointID: q.CurrentPEMPointID,
	}
}

func candidateFromAPI(i int, c *apiv1.Candidate, current []float64) (candidate.Input, error) {
	sim, err := vectorSimilarity(i, c, current)
	if err != nil {
		return candidate.Input{}, err
	}
	return candidate.Input{
		Index:            i,
		ID:               c.ID,
		VectorSimilarity: sim,
		Skeleton:         c.PEMSkeleton,
		Timestamp:        c.Timestamp.Time,
		FileHash:         deref(c.ActiveFileHash),
		ProjectHash:      deref(c.WorkingDirHash),
		FileExt:          c.ActiveFileExt,
		PythonVersion:    deref(c.PythonVersion),
		DirectoryTree:    c.DirectoryTree,
		Packages:         c.Packages,
		ResolutionDepth:  c.ResolutionDepth,
		PriorSuccess:     c.PriorSuccess,
	}, nil
}

// vectorSimilarity returns the supplied similarity, or the cosine of the
// candidate vector against the query vector clipped to [0,1].
func vectorSimilarity(i int, c *apiv1.Candidate, current []float64) (float64, error) {
	if c.VectorSimilarity != nil {
		return *c.VectorSimilarity, nil
	}
	field := fmt.Sprintf("candidates[%d].vector_similarity", i)
	if len(c.Vector) == 0 {
		return 0, domain.NewValidationError(field, "is required when vector is absent")
	}
	if len(current) == 0 {
		return 0, domain.NewValidationError("query.current_vector", "is required when a candidate carries only a vector")
	}
	if len(current) != len(c.Vector) {
		return 0, domain.NewValidationError(
			fmt.Sprintf("candidates[%d].vector", i),
			fmt.Sprintf("dimension %d does not match current_vector dimension %d", len(c.Vector), len(current)),
		)
	}
	cos := cosine(current, c.Vector)
	if math.IsNaN(cos) {
		return 0, domain.NewValidationError(fmt.Sprintf("candidates[%d].vector", i), "must contain finite values")
	}
	return math.Max(0, math.Min(1, cos)), nil
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Response converts a domain response into its wire form.
func Response(r result.Response) *apiv1.RankResponse {
	out := &apiv1.RankResponse{
		Abstain:    r.Abstained(),
		Reason:     r.Reason(),
		Alternates: make([]apiv1.RankedItem, 0, len(r.Alternates())),
	}
	if best := r.Best(); best != nil {
		item := itemToAPI(*best)
		out.Best = &item
	}
	for _, alt := range r.Alternates() {
		out.Alternates = append(out.Alternates, itemToAPI(alt))
	}
	return out
}

func itemToAPI(it result.Item) apiv1.RankedItem {
	f := it.Features()
	reasons := make([]string, len(it.Reasons()))
	copy(reasons, it.Reasons())
	return apiv1.RankedItem{
		ID:    it.ID(),
		Score: it.Score(),
		Features: apiv1.Features{
			Skeleton: f.Skeleton,
			Vector:   f.Vector,
			Recency:  f.Recency,
			Project:  f.Project,
			File:     f.File,
			Packages: f.Packages,
			Pyver:    f.Pyver,
		},
		Reasons: reasons,
	}
}
