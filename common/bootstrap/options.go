package bootstrap

import (
	"github.com/mtaadao/treasury/common/config"
	"github.com/mtaadao/treasury/common/db"
	"github.com/mtaadao/treasury/common/logger"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipDB        bool
	skipRedis     bool
	skipTelemetry bool
	customLogger  *logger.Logger
	customConfig  *config.Config
	dbInitHook    func(*db.DB) error
}

// WithoutDB skips database initialization
func WithoutDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// WithoutRedis skips Redis initialization
func WithoutRedis() Option {
	return func(o *options) {
		o.skipRedis = true
	}
}

// WithoutTelemetry skips telemetry initialization
func WithoutTelemetry() Option {
	return func(o *options) {
		o.skipTelemetry = true
	}
}

// WithLogger uses a custom logger instead of building one from config
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithConfig uses a custom config instead of loading from the environment
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithDBInitHook runs fn after the database pool is established
func WithDBInitHook(fn func(*db.DB) error) Option {
	return func(o *options) {
		o.dbInitHook = fn
	}
}

func defaultOptions() *options {
	return &options{}
}
