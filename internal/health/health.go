// Package health exposes the standard gRPC health service, driven by
// periodic pings of the storefront's backends.
package health

import (
	"context"
	"net"
	"sort"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Checker interface {
	Ping(ctx context.Context) error
}

type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	checks   map[string]Checker
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

// NewServer registers health and reflection. The overall service ("") is
// serving only while every named check passes.
func NewServer(checks map[string]Checker, log *zap.Logger) *Server {
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return &Server{
		grpc:     grpcServer,
		health:   healthServer,
		checks:   checks,
		interval: 10 * time.Second,
		timeout:  2 * time.Second,
		log:      log,
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Watch probes the checks until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	s.probe(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) probe(ctx context.Context) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range names {
		status := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
		if err := s.checks[name].Ping(pingCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			s.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
		}
		cancel()
		s.health.SetServingStatus(name, status)
	}
	s.health.SetServingStatus("", overall)
}

// GracefulStop flips every service to NOT_SERVING, then drains the server.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
