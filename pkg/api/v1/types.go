// Package v1 defines the JSON contract of the pemrank HTTP API.
//
// The types are shared by the HTTP server, the in-process library and
// pemrankctl so that every entry point accepts exactly the same payloads.
package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest       = "bad_request"
	ErrorCodeValidationFailed = "validation_failed"
	ErrorCodeUnauthorized     = "unauthorized"
	ErrorCodeRateLimited      = "rate_limited"
	ErrorCodeInternalError    = "internal_error"
)

// LatencyHeader carries the server-side ranking latency in milliseconds.
const LatencyHeader = "X-Ranker-Latency-ms"

// RankRequest is the body of POST /rank.
type RankRequest struct {
	Params     *RankParams   `json:"params,omitempty"`
	Query      *QueryContext `json:"query" validate:"required"`
	Candidates []Candidate   `json:"candidates" validate:"required,dive"`
}

// RankParams overrides ranking knobs. Omitted fields take server defaults.
type RankParams struct {
	K                       *int     `json:"k,omitempty" validate:"omitempty,gte=1,lte=10"`
	MMRLambda               *float64 `json:"mmr_lambda,omitempty" validate:"omitempty,gte=0,lte=1"`
	ConfidenceFloor         *float64 `json:"confidence_floor,omitempty" validate:"omitempty,gte=0,lte=1"`
	RecencyHalfLifeDays     *float64 `json:"recency_half_life_days,omitempty" validate:"omitempty,gt=0"`
	SkeletonFilterThreshold *float64 `json:"skeleton_filter_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	AllowRepeatDepth        *int     `json:"allow_repeat_depth,omitempty" validate:"omitempty,gte=0,lte=3"`
	AllowRepeatMinHours     *float64 `json:"allow_repeat_min_hours,omitempty" validate:"omitempty,gte=0"`
	SuccessBonusAlpha       *float64 `json:"success_bonus_alpha,omitempty" validate:"omitempty,gte=0,lte=0.2"`
}

// QueryContext describes the error the student is currently looking at.
type QueryContext struct {
	StudentID         string     `json:"student_id" validate:"required"`
	PEMType           string     `json:"pemType" validate:"required"`
	PEMSkeleton       string     `json:"pemSkeleton" validate:"required"`
	Timestamp         *Timestamp `json:"timestamp" validate:"required"`
	ActiveFileHash    *string    `json:"activeFile_hash" validate:"required"`
	WorkingDirHash    *string    `json:"workingDirectory_hash" validate:"required"`
	DirectoryTree     []string   `json:"directoryTree,omitempty"`
	Packages          []string   `json:"packages,omitempty"`
	PythonVersion     *string    `json:"pythonVersion" validate:"required"`
	ResolutionDepth   *int       `json:"resolutionDepth,omitempty" validate:"omitempty,gte=0,lte=3"`
	CurrentPEMPointID string     `json:"current_pem_point_id,omitempty"`
	CodeSlice         string     `json:"code_slice,omitempty"`
	ActiveFileExt     string     `json:"activeFile_ext,omitempty"`
	CurrentVector     []float64  `json:"current_vector,omitempty"`
}

// Candidate is a prior encounter proposed by the retrieval layer.
type Candidate struct {
	ID               string     `json:"id" validate:"required"`
	VectorSimilarity *float64   `json:"vector_similarity,omitempty" validate:"omitempty,gte=0,lte=1"`
	PEMSkeleton      string     `json:"pemSkeleton" validate:"required"`
	Timestamp        *Timestamp `json:"timestamp" validate:"required"`
	ActiveFileHash   *string    `json:"activeFile_hash,omitempty"`
	WorkingDirHash   *string    `json:"workingDirectory_hash,omitempty"`
	PythonVersion    *string    `json:"pythonVersion" validate:"required"`
	DirectoryTree    []string   `json:"directoryTree,omitempty"`
	Packages         []string   `json:"packages,omitempty"`
	ResolutionDepth  *int       `json:"resolutionDepth,omitempty" validate:"omitempty,gte=0"`
	ActiveFileExt    string     `json:"activeFile_ext,omitempty"`
	PriorSuccess     *bool      `json:"prior_success,omitempty"`
	Vector           []float64  `json:"vector,omitempty"`
}

// RankResponse is the body of a successful POST /rank.
type RankResponse struct {
	Abstain    bool         `json:"abstain"`
	Reason     string       `json:"reason,omitempty"`
	Best       *RankedItem  `json:"best,omitempty"`
	Alternates []RankedItem `json:"alternates"`
}

// RankedItem is one recommendation with its explanation.
type RankedItem struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Features Features `json:"features"`
	Reasons  []string `json:"reasons"`
}

// Features is the per-candidate feature breakdown.
type Features struct {
	Skeleton float64 `json:"skeleton"`
	Vector   float64 `json:"vector"`
	Recency  float64 `json:"recency"`
	Project  float64 `json:"project"`
	File     float64 `json:"file"`
	Packages float64 `json:"packages"`
	Pyver    float64 `json:"pyver"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK                 bool              `json:"ok"`
	Status             string            `json:"status"`
	Checks             map[string]string `json:"checks"`
	CalibrationVersion string            `json:"calibration_version,omitempty"`
}

// ErrorResponse is returned for every non-2xx answer.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Timestamp accepts RFC 3339 or a zone-less ISO-8601 time, which is read as UTC.
type Timestamp struct {
	time.Time
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// ParseTimestamp parses s as RFC 3339, falling back to zone-less layouts in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range zonelessLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want RFC 3339 or ISO-8601", s)
}
