package store

import (
	"time"

	"go.uber.org/zap"
)

// Config selects and parameterizes the engine.
type Config struct {
	Driver         string // "mongo" or "postgres"
	URI            string
	Database       string
	ConnectTimeout time.Duration
	CheckInterval  time.Duration // zero keeps DefaultCheckInterval
}

// Open builds the adapter for cfg without connecting. An empty URI yields a not_configured adapter.
func Open(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.URI == "" {
		return NewAdapter(nil, cfg.ConnectTimeout, logger)
	}
	var engine Engine
	switch cfg.Driver {
	case "postgres":
		engine = NewPostgresEngine(cfg.URI, logger)
	default:
		engine = NewMongoEngine(cfg.URI, cfg.Database, cfg.ConnectTimeout)
	}
	a := NewAdapter(engine, cfg.ConnectTimeout, logger)
	if cfg.CheckInterval > 0 {
		a.SetCheckInterval(cfg.CheckInterval)
	}
	return a
}
