// Package candidate holds a prior error encounter offered for ranking.
package candidate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
)

// Input carries raw candidate fields. Index is the position in the request,
// used only to label validation errors.
type Input struct {
	Index            int
	ID               string
	VectorSimilarity float64
	Skeleton         string
	Timestamp        time.Time
	FileHash         string
	ProjectHash      string
	FileExt          string
	PythonVersion    string
	DirectoryTree    []string
	Packages         []string
	ResolutionDepth  *int
	PriorSuccess     *bool
}

// Candidate is a validated prior encounter.
type Candidate struct {
	id               string
	vectorSimilarity float64
	skeleton         string
	timestamp        time.Time
	fileHash         string
	projectHash      string
	fileExt          string
	pythonVersion    string
	directoryTree    []string
	packages         []string
	resolutionDepth  *int
	priorSuccess     *bool
}

// New validates the input and normalises its package list.
func New(in Input) (Candidate, error) {
	field := func(name string) string { return fmt.Sprintf("candidates[%d].%s", in.Index, name) }

	if strings.TrimSpace(in.ID) == "" {
		return Candidate{}, domain.NewValidationError(field("id"), "is required")
	}
	v := in.VectorSimilarity
	if math.IsNaN(v) || v < 0 || v > 1 {
		return Candidate{}, domain.NewValidationError(field("vector_similarity"), "must be between 0 and 1")
	}
	if strings.TrimSpace(in.Skeleton) == "" {
		return Candidate{}, domain.NewValidationError(field("pemSkeleton"), "is required")
	}
	if in.Timestamp.IsZero() {
		return Candidate{}, domain.NewValidationError(field("timestamp"), "is required")
	}
	if in.ResolutionDepth != nil && *in.ResolutionDepth < 0 {
		return Candidate{}, domain.NewValidationError(field("resolutionDepth"), "must be >= 0")
	}

	c := Candidate{
		id:               in.ID,
		vectorSimilarity: v,
		skeleton:         in.Skeleton,
		timestamp:        in.Timestamp.UTC(),
		fileHash:         in.FileHash,
		projectHash:      in.ProjectHash,
		fileExt:          in.FileExt,
		pythonVersion:    in.PythonVersion,
		directoryTree:    append([]string(nil), in.DirectoryTree...),
		packages:         query.NormalizePackages(in.Packages),
	}
	if in.ResolutionDepth != nil {
		d := *in.ResolutionDepth
		c.resolutionDepth = &d
	}
	if in.PriorSuccess != nil {
		s := *in.PriorSuccess
		c.priorSuccess = &s
	}
	return c, nil
}

// ID returns the upstream record identifier.
func (c Candidate) ID() string { return c.id }

// VectorSimilarity returns the upstream embedding similarity in [0,1].
func (c Candidate) VectorSimilarity() float64 { return c.vectorSimilarity }

// Skeleton returns the error signature.
func (c Candidate) Skeleton() string { return c.skeleton }

// Timestamp returns when the encounter happened, in UTC.
func (c Candidate) Timestamp() time.Time { return c.timestamp }

// FileHash returns the active file hash. May be empty.
func (c Candidate) FileHash() string { return c.fileHash }

// ProjectHash returns the working directory hash. May be empty.
func (c Candidate) ProjectHash() string { return c.projectHash }

// FileExt returns the active file extension. May be empty.
func (c Candidate) FileExt() string { return c.fileExt }

// PythonVersion returns the runtime version. May be empty.
func (c Candidate) PythonVersion() string { return c.pythonVersion }

// DirectoryTree returns the project file listing.
func (c Candidate) DirectoryTree() []string { return c.directoryTree }

// Packages returns the normalised package set.
func (c Candidate) Packages() []string { return c.packages }

// ResolutionDepth returns how deep the hints went, nil when unknown.
func (c Candidate) ResolutionDepth() *int { return c.resolutionDepth }

// PriorSuccess returns the recorded outcome, nil when unknown.
func (c Candidate) PriorSuccess() *bool { return c.priorSuccess }
