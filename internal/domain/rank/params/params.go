// Package params holds the request-scoped tuning knobs of a ranking call.
package params

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/pemrank/internal/domain"
)

// Defaults applied when a field is omitted.
const (
	DefaultK                       = 3
	DefaultMMRLambda               = 0.7
	DefaultConfidenceFloor         = 0.5
	DefaultRecencyHalfLifeDays     = 14.0
	DefaultSkeletonFilterThreshold = 0.6
	DefaultAllowRepeatDepth        = 3
	DefaultAllowRepeatMinHours     = 24.0
	DefaultSuccessBonusAlpha       = 0.03
)

// Accepted ranges.
const (
	MinK                 = 1
	MaxK                 = 10
	MaxAllowRepeatDepth  = 3
	MaxSuccessBonusAlpha = 0.2
)

// Overrides carries caller-supplied values. Nil fields take the default.
type Overrides struct {
	K                       *int
	MMRLambda               *float64
	ConfidenceFloor         *float64
	RecencyHalfLifeDays     *float64
	SkeletonFilterThreshold *float64
	AllowRepeatDepth        *int
	AllowRepeatMinHours     *float64
	SuccessBonusAlpha       *float64
}

// Params is a validated, immutable parameter set.
type Params struct {
	k                       int
	mmrLambda               float64
	confidenceFloor         float64
	recencyHalfLifeDays     float64
	skeletonFilterThreshold float64
	allowRepeatDepth        int
	allowRepeatMinHours     float64
	successBonusAlpha       float64
}

// Default returns the parameter set used when the request omits params entirely.
func Default() Params {
	return Params{
		k:                       DefaultK,
		mmrLambda:               DefaultMMRLambda,
		confidenceFloor:         DefaultConfidenceFloor,
		recencyHalfLifeDays:     DefaultRecencyHalfLifeDays,
		skeletonFilterThreshold: DefaultSkeletonFilterThreshold,
		allowRepeatDepth:        DefaultAllowRepeatDepth,
		allowRepeatMinHours:     DefaultAllowRepeatMinHours,
		successBonusAlpha:       DefaultSuccessBonusAlpha,
	}
}

// New applies overrides on top of the defaults. Out-of-range values are
// rejected, never clamped.
func New(o Overrides) (Params, error) {
	p := Default()

	if o.K != nil {
		if *o.K < MinK || *o.K > MaxK {
			return Params{}, rangeErr("k", fmt.Sprintf("must be between %d and %d", MinK, MaxK))
		}
		p.k = *o.K
	}
	if o.AllowRepeatDepth != nil {
		if *o.AllowRepeatDepth < 0 || *o.AllowRepeatDepth > MaxAllowRepeatDepth {
			return Params{}, rangeErr("allow_repeat_depth", fmt.Sprintf("must be between 0 and %d", MaxAllowRepeatDepth))
		}
		p.allowRepeatDepth = *o.AllowRepeatDepth
	}

	floats := []struct {
		name     string
		val      *float64
		dst      *float64
		min, max float64
		openMin  bool
	}{
		{"mmr_lambda", o.MMRLambda, &p.mmrLambda, 0, 1, false},
		{"confidence_floor", o.ConfidenceFloor, &p.confidenceFloor, 0, 1, false},
		{"recency_half_life_days", o.RecencyHalfLifeDays, &p.recencyHalfLifeDays, 0, math.MaxFloat64, true},
		{"skeleton_filter_threshold", o.SkeletonFilterThreshold, &p.skeletonFilterThreshold, 0, 1, false},
		{"allow_repeat_min_hours", o.AllowRepeatMinHours, &p.allowRepeatMinHours, 0, math.MaxFloat64, false},
		{"success_bonus_alpha", o.SuccessBonusAlpha, &p.successBonusAlpha, 0, MaxSuccessBonusAlpha, false},
	}
	for _, f := range floats {
		if f.val == nil {
			continue
		}
		v := *f.val
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, rangeErr(f.name, "must be a finite number")
		}
		if f.openMin && v <= f.min {
			return Params{}, rangeErr(f.name, "must be > 0")
		}
		if !f.openMin && (v < f.min || v > f.max) {
			if f.max == math.MaxFloat64 {
				return Params{}, rangeErr(f.name, fmt.Sprintf("must be >= %g", f.min))
			}
			return Params{}, rangeErr(f.name, fmt.Sprintf("must be between %g and %g", f.min, f.max))
		}
		*f.dst = v
	}
	return p, nil
}

func rangeErr(field, reason string) error {
	return domain.NewValidationError("params."+field, reason)
}

// K returns the maximum number of items returned (best + alternates).
func (p Params) K() int { return p.k }

// MMRLambda returns the relevance/diversity trade-off.
func (p Params) MMRLambda() float64 { return p.mmrLambda }

// ConfidenceFloor returns the minimum best score below which the engine abstains.
func (p Params) ConfidenceFloor() float64 { return p.confidenceFloor }

// RecencyHalfLifeDays returns the recency decay half-life.
func (p Params) RecencyHalfLifeDays() float64 { return p.recencyHalfLifeDays }

// SkeletonFilterThreshold returns the minimum skeleton similarity a candidate needs.
func (p Params) SkeletonFilterThreshold() float64 { return p.skeletonFilterThreshold }

// AllowRepeatDepth returns the maximum resolution depth a candidate may have.
func (p Params) AllowRepeatDepth() int { return p.allowRepeatDepth }

// AllowRepeatMinHours returns the minimum age of a candidate, in hours.
func (p Params) AllowRepeatMinHours() float64 { return p.allowRepeatMinHours }

// SuccessBonusAlpha returns the success bonus weight.
func (p Params) SuccessBonusAlpha() float64 { return p.successBonusAlpha }
