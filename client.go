package pemrank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/pemrank/internal/db"
	dbRedis "github.com/kailas-cloud/pemrank/internal/db/redis"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/calibration"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
	"github.com/kailas-cloud/pemrank/internal/repository/rankcache"
	"github.com/kailas-cloud/pemrank/internal/transport/wire"
	rankuc "github.com/kailas-cloud/pemrank/internal/usecase/rank"
	apiv1 "github.com/kailas-cloud/pemrank/pkg/api/v1"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 5 * time.Minute
)

// rankUseCase is the consumer interface over the rank service.
type rankUseCase interface {
	Rank(ctx context.Context, req request.Request) (result.Response, error)
}

// CalibrationInfo identifies the calibration a Client ranks with.
type CalibrationInfo struct {
	Version     string
	Fingerprint string
}

// Client ranks candidates in process. Safe for concurrent use.
type Client struct {
	ranker rankUseCase
	binder *wire.Binder
	info   CalibrationInfo
	store  db.Store
	obs    *observer
}

// New creates a Client. Without WithValkey/WithRedis no network is touched.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{cacheTTL: defaultCacheTTL}
	for _, o := range opts {
		o.apply(cfg)
	}

	cal, err := loadCalibration(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := rankuc.NewEngine(cal)
	if err != nil {
		return nil, fmt.Errorf("pemrank: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var (
		store db.Store
		cache rankuc.Cache
	)
	if cfg.driver != "" {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("pemrank: cache not ready: %w", err)
		}
		cache = rankcache.New(store, cfg.cacheTTL)
	}

	svc := rankuc.NewService(engine, cache)
	return &Client{
		ranker: svc,
		binder: wire.NewBinder(cal.MaxCandidates),
		info:   CalibrationInfo{Version: cal.Version, Fingerprint: svc.Fingerprint()},
		store:  store,
		obs:    obs,
	}, nil
}

func loadCalibration(cfg *clientConfig) (calibration.Calibration, error) {
	if cfg.calibrationYAML != nil {
		cal, err := calibration.Parse(cfg.calibrationYAML)
		if err != nil {
			return calibration.Calibration{}, fmt.Errorf("pemrank: %w", err)
		}
		return cal, nil
	}
	cal, err := calibration.LoadFile(cfg.calibrationFile)
	if err != nil {
		return calibration.Calibration{}, fmt.Errorf("pemrank: %w", err)
	}
	return cal, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("pemrank: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("pemrank: unknown driver %q", cfg.driver)
	}
}

// Close releases the cache connection, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks cache connectivity. Always nil without a cache.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Calibration returns the version and fingerprint of the active calibration.
func (c *Client) Calibration() CalibrationInfo {
	return c.info
}

// DecodeRequest reads a RankRequest with the same strictness as the HTTP API:
// unknown fields and trailing data are rejected with ErrMalformedRequest.
func (c *Client) DecodeRequest(r io.Reader) (*apiv1.RankRequest, error) {
	req, err := c.binder.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("pemrank: %w", err)
	}
	return req, nil
}

// Rank validates req and ranks its candidates. Errors wrap ErrInvalidRequest
// for caller mistakes and ErrInternalFault for broken engine invariants;
// a partial response is never returned.
func (c *Client) Rank(ctx context.Context, req *apiv1.RankRequest) (*apiv1.RankResponse, error) {
	start := time.Now()

	domReq, err := c.binder.Bind(req)
	if err != nil {
		c.obs.observe("rank", start, "error", err)
		return nil, fmt.Errorf("pemrank: %w", err)
	}

	resp, err := c.ranker.Rank(ctx, domReq)
	if err != nil {
		c.obs.observe("rank", start, "error", err)
		return nil, fmt.Errorf("pemrank: %w", err)
	}

	outcome := rankuc.OutcomeRecommend
	if resp.Abstained() {
		outcome = rankuc.OutcomeAbstain
	}
	c.obs.observe("rank", start, outcome, nil)
	return wire.Response(resp), nil
}

// IsValidationError reports whether err was caused by the request payload.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrMalformedRequest)
}
