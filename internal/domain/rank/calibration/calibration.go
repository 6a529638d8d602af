// Package calibration holds the versioned, hand-tunable configuration of the
// ranking engine: feature weights, partial-credit constants, reason thresholds
// and the success-signal source.
package calibration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/pemrank/internal/domain"
)

// SuccessSignal selects where the success bonus reads its signal from.
type SuccessSignal string

// Success signal sources.
const (
	// SuccessOutcome reads the explicit prior_success flag on the candidate.
	SuccessOutcome SuccessSignal = "outcome"
	// SuccessResolutionDepth maps resolution depth 0/1/2+ to 0/0.5/1.
	SuccessResolutionDepth SuccessSignal = "resolution_depth"
	// SuccessNone disables the bonus.
	SuccessNone SuccessSignal = "none"
)

// IsValid reports whether s is a known signal source.
func (s SuccessSignal) IsValid() bool {
	return s == SuccessOutcome || s == SuccessResolutionDepth || s == SuccessNone
}

// DefaultVersion identifies the built-in calibration.
const DefaultVersion = "2025.08-1"

// Weights are the linear scoring weights, one per feature.
type Weights struct {
	Skeleton float64 `yaml:"skeleton"`
	Vector   float64 `yaml:"vector"`
	Recency  float64 `yaml:"recency"`
	Project  float64 `yaml:"project"`
	File     float64 `yaml:"file"`
	Packages float64 `yaml:"packages"`
	Pyver    float64 `yaml:"pyver"`
}

// Sum returns the total weight mass.
func (w Weights) Sum() float64 {
	return w.Skeleton + w.Vector + w.Recency + w.Project + w.File + w.Packages + w.Pyver
}

// ReasonThresholds control when the composer emits a strong or moderate claim.
type ReasonThresholds struct {
	Strong   float64 `yaml:"strong"`
	Moderate float64 `yaml:"moderate"`
}

// Calibration is the full engine configuration.
type Calibration struct {
	Version             string           `yaml:"version"`
	Weights             Weights          `yaml:"weights"`
	FileExtensionCredit float64          `yaml:"file_extension_credit"`
	PyverMinorCredit    float64          `yaml:"pyver_minor_credit"`
	SuccessSignal       SuccessSignal    `yaml:"success_signal"`
	CollapseDuplicates  bool             `yaml:"collapse_duplicates"`
	Reasons             ReasonThresholds `yaml:"reasons"`
	MaxCandidates       int              `yaml:"max_candidates"`
}

// Default returns the built-in calibration.
//
// Emphasis order: skeleton > vector > recency > project = file = packages = pyver.
// The weights sum to 1 so the base score needs no renormalisation.
func Default() Calibration {
	return Calibration{
		Version: DefaultVersion,
		Weights: Weights{
			Skeleton: 0.40,
			Vector:   0.30,
			Recency:  0.12,
			Project:  0.045,
			File:     0.045,
			Packages: 0.045,
			Pyver:    0.045,
		},
		FileExtensionCredit: 0.5,
		PyverMinorCredit:    0.5,
		SuccessSignal:       SuccessOutcome,
		CollapseDuplicates:  false,
		Reasons: ReasonThresholds{
			Strong:   0.8,
			Moderate: 0.5,
		},
		MaxCandidates: 500,
	}
}

// Validate checks that the calibration is usable by the engine.
func (c *Calibration) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("%w: version is required", domain.ErrInvalidCalibration)
	}
	w := c.Weights
	for name, v := range map[string]float64{
		"skeleton": w.Skeleton, "vector": w.Vector, "recency": w.Recency,
		"project": w.Project, "file": w.File, "packages": w.Packages, "pyver": w.Pyver,
	} {
		if v < 0 {
			return fmt.Errorf("%w: weights.%s must be >= 0, got %v", domain.ErrInvalidCalibration, name, v)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("%w: weights must not all be zero", domain.ErrInvalidCalibration)
	}
	if !unit(c.FileExtensionCredit) {
		return fmt.Errorf("%w: file_extension_credit must be in [0,1]", domain.ErrInvalidCalibration)
	}
	if !unit(c.PyverMinorCredit) {
		return fmt.Errorf("%w: pyver_minor_credit must be in [0,1]", domain.ErrInvalidCalibration)
	}
	if !c.SuccessSignal.IsValid() {
		return fmt.Errorf("%w: success_signal must be one of outcome, resolution_depth, none; got %q",
			domain.ErrInvalidCalibration, c.SuccessSignal)
	}
	if !unit(c.Reasons.Strong) || !unit(c.Reasons.Moderate) {
		return fmt.Errorf("%w: reason thresholds must be in [0,1]", domain.ErrInvalidCalibration)
	}
	if c.Reasons.Moderate > c.Reasons.Strong {
		return fmt.Errorf("%w: reasons.moderate must not exceed reasons.strong", domain.ErrInvalidCalibration)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("%w: max_candidates must be >= 1", domain.ErrInvalidCalibration)
	}
	return nil
}

// Fingerprint identifies the effective calibration values. Stable across processes.
func (c *Calibration) Fingerprint() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		// Calibration holds only scalars; Marshal cannot fail.
		return c.Version
	}
	h := sha256.Sum256(data)
	return c.Version + "-" + hex.EncodeToString(h[:8])
}

// Parse decodes YAML on top of the defaults, so absent keys keep their default value.
func Parse(data []byte) (Calibration, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Calibration{}, fmt.Errorf("%w: parse: %w", domain.ErrInvalidCalibration, err)
	}
	if err := c.Validate(); err != nil {
		return Calibration{}, err
	}
	return c, nil
}

// LoadFile reads and validates a standalone calibration YAML file.
// An empty path returns the defaults.
func LoadFile(path string) (Calibration, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Calibration{}, fmt.Errorf("read calibration %s: %w", path, err)
	}
	return Parse(data)
}

func unit(v float64) bool { return v >= 0 && v <= 1 }
