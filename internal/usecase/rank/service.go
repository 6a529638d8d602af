package rank

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
	"github.com/kailas-cloud/pemrank/internal/logger"
	"github.com/kailas-cloud/pemrank/internal/metrics"
)

// Outcome labels for rank_requests_total.
const (
	OutcomeRecommend = "recommend"
	OutcomeAbstain   = "abstain"
	OutcomeError     = "error"
)

// Service wraps the Engine with the response cache, metrics and logging.
type Service struct {
	engine      *Engine
	cache       Cache
	fingerprint string
}

// NewService creates a Service. cache can be nil.
func NewService(engine *Engine, cache Cache) *Service {
	cal := engine.Calibration()
	return &Service{engine: engine, cache: cache, fingerprint: cal.Fingerprint()}
}

// Engine returns the wrapped engine.
func (s *Service) Engine() *Engine { return s.engine }

// Fingerprint returns the calibration fingerprint used in cache keys.
func (s *Service) Fingerprint() string { return s.fingerprint }

// Rank consults the cache, runs the engine on a miss and records metrics.
func (s *Service) Rank(ctx context.Context, req request.Request) (result.Response, error) {
	log := logger.FromContext(ctx)

	if s.cache != nil {
		if resp, ok := s.cache.Get(ctx, s.fingerprint, req); ok {
			metrics.RankCacheTotal.WithLabelValues("hit").Inc()
			recordOutcome(resp)
			log.Debug("Rank served from cache",
				zap.Bool("abstain", resp.Abstained()),
				zap.String("reason", resp.Reason()),
			)
			return resp, nil
		}
		metrics.RankCacheTotal.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	resp, stats, err := s.engine.Rank(req)
	duration := time.Since(start)

	metrics.RankDuration.Observe(duration.Seconds())
	metrics.RankCandidates.Observe(float64(stats.Candidates))
	metrics.RankSurvivors.Observe(float64(stats.Survivors))
	for rule, n := range stats.Filtered {
		metrics.RankFilteredTotal.WithLabelValues(string(rule)).Add(float64(n))
	}

	if err != nil {
		metrics.RankRequestsTotal.WithLabelValues(OutcomeError, "").Inc()
		log.Error("Ranking failed",
			zap.Int("candidates", stats.Candidates),
			zap.Int("survivors", stats.Survivors),
			zap.Error(err),
		)
		return result.Response{}, fmt.Errorf("rank: %w", err)
	}

	if stats.Survivors > 0 {
		metrics.RankBestScore.Observe(stats.TopScore)
	}
	recordOutcome(resp)

	log.Debug("Rank completed",
		zap.Int("candidates", stats.Candidates),
		zap.Int("survivors", stats.Survivors),
		zap.Int("collapsed", stats.Collapsed),
		zap.Int("selected", stats.Selected),
		zap.Float64("top_score", stats.TopScore),
		zap.Bool("abstain", resp.Abstained()),
		zap.String("reason", resp.Reason()),
		zap.Duration("duration", duration),
	)

	if s.cache != nil {
		s.cache.Put(ctx, s.fingerprint, req, resp)
	}
	return resp, nil
}

func recordOutcome(resp result.Response) {
	if resp.Abstained() {
		metrics.RankRequestsTotal.WithLabelValues(OutcomeAbstain, resp.Reason()).Inc()
		return
	}
	metrics.RankRequestsTotal.WithLabelValues(OutcomeRecommend, "").Inc()
}
