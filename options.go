package pemrank

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	calibrationFile string
	calibrationYAML []byte

	driver   string // "valkey" or "redis"; empty disables the cache
	addrs    []string
	password string
	cacheTTL time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCalibrationFile loads the engine calibration from a YAML file.
// Absent keys keep the built-in values.
func WithCalibrationFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.calibrationFile = path
	})
}

// WithCalibrationYAML uses an in-memory YAML calibration. Takes precedence
// over WithCalibrationFile.
func WithCalibrationYAML(data []byte) Option {
	return optionFunc(func(c *clientConfig) {
		c.calibrationYAML = data
	})
}

// WithValkey enables the response cache on a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis enables the response cache on a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCacheTTL sets the response cache entry lifetime. Default 5 minutes.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithLogger sets a structured logger for rank operations.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics with the given registerer.
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
