// Package query holds the live error context a ranking call is made for.
package query

import (
	"strings"
	"time"

	"github.com/kailas-cloud/pemrank/internal/domain"
)

// MaxResolutionDepth is the deepest hint level a student can reach.
const MaxResolutionDepth = 3

// Input carries raw query fields.
type Input struct {
	StudentID         string
	PEMType           string
	Skeleton          string
	Timestamp         time.Time
	FileHash          string
	ProjectHash       string
	FileExt           string
	DirectoryTree     []string
	Packages          []string
	PythonVersion     string
	ResolutionDepth   *int
	CurrentPEMPointID string
}

// Query is the validated live context.
type Query struct {
	studentID         string
	pemType           string
	skeleton          string
	timestamp         time.Time
	fileHash          string
	projectHash       string
	fileExt           string
	directoryTree     []string
	packages          []string
	pythonVersion     string
	resolutionDepth   *int
	currentPEMPointID string
}

// New validates the input and normalises its package list.
func New(in Input) (Query, error) {
	if strings.TrimSpace(in.StudentID) == "" {
		return Query{}, domain.NewValidationError("query.student_id", "is required")
	}
	if strings.TrimSpace(in.PEMType) == "" {
		return Query{}, domain.NewValidationError("query.pemType", "is required")
	}
	if strings.TrimSpace(in.Skeleton) == "" {
		return Query{}, domain.NewValidationError("query.pemSkeleton", "is required")
	}
	if in.Timestamp.IsZero() {
		return Query{}, domain.NewValidationError("query.timestamp", "is required")
	}
	if d := in.ResolutionDepth; d != nil && (*d < 0 || *d > MaxResolutionDepth) {
		return Query{}, domain.NewValidationError("query.resolutionDepth", "must be between 0 and 3")
	}

	var depth *int
	if in.ResolutionDepth != nil {
		d := *in.ResolutionDepth
		depth = &d
	}

	return Query{
		studentID:         in.StudentID,
		pemType:           in.PEMType,
		skeleton:          in.Skeleton,
		timestamp:         in.Timestamp.UTC(),
		fileHash:          in.FileHash,
		projectHash:       in.ProjectHash,
		fileExt:           in.FileExt,
		directoryTree:     append([]string(nil), in.DirectoryTree...),
		packages:          NormalizePackages(in.Packages),
		pythonVersion:     in.PythonVersion,
		resolutionDepth:   depth,
		currentPEMPointID: in.CurrentPEMPointID,
	}, nil
}

// StudentID returns the opaque learner identifier.
func (q Query) StudentID() string { return q.studentID }

// PEMType returns the error category, e.g. "ModuleNotFoundError".
func (q Query) PEMType() string { return q.pemType }

// Skeleton returns the normalised error signature.
func (q Query) Skeleton() string { return q.skeleton }

// Timestamp returns the moment of the live error, in UTC.
func (q Query) Timestamp() time.Time { return q.timestamp }

// FileHash returns the active file hash. May be empty.
func (q Query) FileHash() string { return q.fileHash }

// ProjectHash returns the working directory hash. May be empty.
func (q Query) ProjectHash() string { return q.projectHash }

// FileExt returns the active file extension. May be empty.
func (q Query) FileExt() string { return q.fileExt }

// DirectoryTree returns the project file listing.
func (q Query) DirectoryTree() []string { return q.directoryTree }

// Packages returns the normalised package set.
func (q Query) Packages() []string { return q.packages }

// PythonVersion returns the runtime version string. May be empty.
func (q Query) PythonVersion() string { return q.pythonVersion }

// ResolutionDepth returns the current hint depth, nil when unknown.
func (q Query) ResolutionDepth() *int { return q.resolutionDepth }

// CurrentPEMPointID returns the upstream id of the live record, if any.
func (q Query) CurrentPEMPointID() string { return q.currentPEMPointID }

var pinOperators = []string{"==", ">=", "<=", "~=", "!=", "<", ">"}

// NormalizePackages trims, lower-cases and strips version pins, dropping
// empty entries and duplicates. First occurrence wins.
func NormalizePackages(pkgs []string) []string {
	out := make([]string, 0, len(pkgs))
	seen := make(map[string]struct{}, len(pkgs))
	for _, p := range pkgs {
		name := strings.ToLower(strings.TrimSpace(p))
		for _, op := range pinOperators {
			if i := strings.Index(name, op); i >= 0 {
				name = name[:i]
			}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
