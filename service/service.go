// Package service hosts the long-running HTTP sidecars of a test binary:
// a healthz endpoint and a prometheus metrics endpoint.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/unitlab/unit/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = 8080

	MetricsHost = "0.0.0.0"
	MetricsPort = 7300
)

// Config selects which servers run and where they listen. The zero value
// disables everything.
type Config struct {
	HealthzAddr string // empty disables the healthz server
	MetricsAddr string // empty disables the metrics server
}

// DefaultConfig enables both servers on their conventional ports.
func DefaultConfig() Config {
	return Config{
		HealthzAddr: net.JoinHostPort(HealthzHost, strconv.Itoa(HealthzPort)),
		MetricsAddr: net.JoinHostPort(MetricsHost, strconv.Itoa(MetricsPort)),
	}
}

type Service struct {
	cfg     Config
	Healthz *HealthzServer
	Metrics *MetricsServer
}

func New(cfg Config) *Service {
	s := &Service{
		cfg:     cfg,
		Healthz: &HealthzServer{},
		Metrics: &MetricsServer{},
	}
	return s
}

func (s *Service) Start(ctx context.Context) {
	log.Info("service starting")

	if s.cfg.HealthzAddr != "" {
		go func() {
			log.Info("starting healthz server", "addr", s.cfg.HealthzAddr)
			if err := s.Healthz.Start(ctx, s.cfg.HealthzAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("error starting healthz server", "err", err)
				metrics.RecordErrorDetails("error starting healthz server", err)
			}
		}()
	}

	if s.cfg.MetricsAddr != "" {
		go func() {
			log.Info("starting metrics server", "addr", s.cfg.MetricsAddr)
			if err := s.Metrics.Start(ctx, s.cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("error starting metrics server", err)
			}
		}()
	}

	log.Info("service started")
}

func (s *Service) Shutdown() {
	log.Info("service shutting down")

	if s.cfg.HealthzAddr != "" {
		_ = s.Healthz.Shutdown()
		log.Info("healthz stopped")
	}

	if s.cfg.MetricsAddr != "" {
		_ = s.Metrics.Shutdown()
		log.Info("metrics stopped")
	}

	log.Info("service stopped")
}
