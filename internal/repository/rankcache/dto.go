package rankcache

import (
	"time"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

// keyDTO is the canonical form of a validated request, hashed into the cache key.
// Field order is fixed by the struct, so equal requests encode to equal bytes.
type keyDTO struct {
	Params     paramsDTO      `json:"p"`
	Query      queryDTO       `json:"q"`
	Candidates []candidateDTO `json:"c"`
}

type paramsDTO struct {
	K                   int     `json:"k"`
	MMRLambda           float64 `json:"l"`
	ConfidenceFloor     float64 `json:"f"`
	HalfLifeDays        float64 `json:"h"`
	SkeletonThreshold   float64 `json:"s"`
	AllowRepeatDepth    int     `json:"d"`
	AllowRepeatMinHours float64 `json:"w"`
	SuccessBonusAlpha   float64 `json:"a"`
}

type queryDTO struct {
	Skeleton      string    `json:"sk"`
	Timestamp     time.Time `json:"ts"`
	FileHash      string    `json:"fh"`
	ProjectHash   string    `json:"ph"`
	FileExt       string    `json:"fe"`
	Packages      []string  `json:"pk"`
	PythonVersion string    `json:"py"`
}

type candidateDTO struct {
	ID               string    `json:"id"`
	VectorSimilarity float64   `json:"v"`
	Skeleton         string    `json:"sk"`
	Timestamp        time.Time `json:"ts"`
	FileHash         string    `json:"fh"`
	ProjectHash      string    `json:"ph"`
	FileExt          string    `json:"fe"`
	Packages         []string  `json:"pk"`
	PythonVersion    string    `json:"py"`
	ResolutionDepth  *int      `json:"rd,omitempty"`
	PriorSuccess     *bool     `json:"ok,omitempty"`
}

// buildKeyDTO keeps only the fields the engine reads. student_id, directory
// trees and ids of the live record do not influence ranking.
func buildKeyDTO(req request.Request) keyDTO {
	p := req.Params()
	q := req.Query()
	out := keyDTO{
		Params: paramsDTO{
			K:                   p.K(),
			MMRLambda:           p.MMRLambda(),
			ConfidenceFloor:     p.ConfidenceFloor(),
			HalfLifeDays:        p.RecencyHalfLifeDays(),
			SkeletonThreshold:   p.SkeletonFilterThreshold(),
			AllowRepeatDepth:    p.AllowRepeatDepth(),
			AllowRepeatMinHours: p.AllowRepeatMinHours(),
			SuccessBonusAlpha:   p.SuccessBonusAlpha(),
		},
		Query: queryDTO{
			Skeleton:      q.Skeleton(),
			Timestamp:     q.Timestamp(),
			FileHash:      q.FileHash(),
			ProjectHash:   q.ProjectHash(),
			FileExt:       q.FileExt(),
			Packages:      q.Packages(),
			PythonVersion: q.PythonVersion(),
		},
		Candidates: make([]candidateDTO, 0, len(req.Candidates())),
	}
	for _, c := range req.Candidates() {
		out.Candidates = append(out.Candidates, candidateDTO{
			ID:               c.ID(),
			VectorSimilarity: c.VectorSimilarity(),
			Skeleton:         c.Skeleton(),
			Timestamp:        c.Timestamp(),
			FileHash:         c.FileHash(),
			ProjectHash:      c.ProjectHash(),
			FileExt:          c.FileExt(),
			Packages:         c.Packages(),
			PythonVersion:    c.PythonVersion(),
			ResolutionDepth:  c.ResolutionDepth(),
			PriorSuccess:     c.PriorSuccess(),
		})
	}
	return out
}

// responseDTO is the stored form of a composed response.
type responseDTO struct {
	Abstain    bool      `json:"abstain"`
	Reason     string    `json:"reason,omitempty"`
	Best       *itemDTO  `json:"best,omitempty"`
	Alternates []itemDTO `json:"alternates"`
}

type itemDTO struct {
	ID       string          `json:"id"`
	Score    float64         `json:"score"`
	Features result.Features `json:"features"`
	Reasons  []string        `json:"reasons"`
}

func toResponseDTO(r result.Response) responseDTO {
	out := responseDTO{
		Abstain:    r.Abstained(),
		Reason:     r.Reason(),
		Alternates: make([]itemDTO, 0, len(r.Alternates())),
	}
	if b := r.Best(); b != nil {
		item := toItemDTO(*b)
		out.Best = &item
	}
	for _, a := range r.Alternates() {
		out.Alternates = append(out.Alternates, toItemDTO(a))
	}
	return out
}

func toItemDTO(i result.Item) itemDTO {
	return itemDTO{ID: i.ID(), Score: i.Score(), Features: i.Features(), Reasons: i.Reasons()}
}

func (d responseDTO) toDomain() result.Response {
	if d.Abstain {
		return result.Abstain(d.Reason)
	}
	alts := make([]result.Item, 0, len(d.Alternates))
	for _, a := range d.Alternates {
		alts = append(alts, result.NewItem(a.ID, a.Score, a.Features, a.Reasons))
	}
	var best result.Item
	if d.Best != nil {
		best = result.NewItem(d.Best.ID, d.Best.Score, d.Best.Features, d.Best.Reasons)
	}
	return result.Recommend(best, alts)
}
