// Package wire converts between the v1 JSON contract and the ranking domain.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/pemrank/internal/domain"
	apiv1 "github.com/kailas-cloud/pemrank/pkg/api/v1"
)

// Binder decodes, validates and converts rank requests. Safe for concurrent use.
type Binder struct {
	validate      *validator.Validate
	maxCandidates int
}

// NewBinder creates a Binder enforcing maxCandidates (<= 0 disables the cap).
func NewBinder(maxCandidates int) *Binder {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Binder{validate: v, maxCandidates: maxCandidates}
}

// Decode reads a RankRequest from r. Unknown fields and trailing data are rejected.
func (b *Binder) Decode(r io.Reader) (*apiv1.RankRequest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var req apiv1.RankRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMalformedRequest, err.Error())
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after request body", domain.ErrMalformedRequest)
	}
	return &req, nil
}

// Validate checks struct-level constraints of req.
func (b *Binder) Validate(req *apiv1.RankRequest) error {
	if req == nil {
		return domain.NewValidationError("", "request body is required")
	}
	if err := b.validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return domain.NewValidationError("", "invalid request")
	}
	ve := ves[0]
	return domain.NewValidationError(fieldPath(ve.Namespace()), describeTag(ve.Tag(), ve.Param()))
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describeTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + param
	case "gt":
		return "must be > " + param
	case "lte":
		return "must be <= " + param
	default:
		return "failed " + tag
	}
}
