// Package service runs the auxiliary HTTP endpoints of a live test process:
// health checks and prometheus metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/livetest/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	shutdownTimeout = 5 * time.Second
)

// Config selects the listen addresses. An empty address disables that server.
type Config struct {
	HealthzAddr string
	MetricsAddr string
	Log         log.Logger
}

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer

	cfg Config
	log log.Logger
}

func New(cfg Config) *Service {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &Service{
		Healthz: &HealthzServer{log: cfg.Log},
		Metrics: &MetricsServer{},
		cfg:     cfg,
		log:     cfg.Log,
	}
}

// Start binds the enabled servers and serves them in the background. Bind errors
// are returned; serve errors are logged and recorded.
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("service starting")

	if s.cfg.HealthzAddr != "" {
		if err := s.Healthz.Listen(s.cfg.HealthzAddr); err != nil {
			return fmt.Errorf("failed to start healthz server: %w", err)
		}
		s.log.Info("starting healthz server", "addr", s.Healthz.Addr())
		go s.serve("healthz", s.Healthz.Serve)
	}

	if s.cfg.MetricsAddr != "" {
		if err := s.Metrics.Listen(s.cfg.MetricsAddr); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		s.log.Info("starting metrics server", "addr", s.Metrics.Addr())
		go s.serve("metrics", s.Metrics.Serve)
	}

	s.log.Info("service started")
	return nil
}

func (s *Service) serve(name string, fn func() error) {
	if err := fn(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("error serving", "server", name, "err", err)
		metrics.RecordErrorDetails(name, err)
	}
}

func (s *Service) Shutdown() {
	s.log.Info("service shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	_ = s.Healthz.Shutdown(ctx)
	s.log.Info("healthz stopped")

	_ = s.Metrics.Shutdown(ctx)
	s.log.Info("metrics stopped")

	s.log.Info("service stopped")
}
