package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional dependency is failing. Ranking still works.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results. The process is live whenever a
// Report can be produced.
type Report struct {
	Status             Status
	Checks             map[string]CheckResult
	CalibrationVersion string
}

// Service coordinates health checks.
type Service struct {
	cache              CachePinger
	calibrationVersion string
}

// New creates a Service. cache can be nil when the response cache is disabled.
func New(cache CachePinger, calibrationVersion string) *Service {
	return &Service{cache: cache, calibrationVersion: calibrationVersion}
}

// Check runs health checks against all components. Has no side effects.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{"engine": CheckOK}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, CalibrationVersion: s.calibrationVersion}
}
