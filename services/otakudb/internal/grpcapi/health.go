// Package grpcapi serves the gRPC side of otakudb: the standard health
// service, driven by store reachability, and server reflection.
package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	defaultInterval = 10 * time.Second
	pingTimeout     = 2 * time.Second
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health keeps the gRPC health status of a service in line with its store.
type Health struct {
	Service  string
	Interval time.Duration

	srv    *health.Server
	pinger Pinger
	log    *zap.Logger
}

func NewHealth(service string, p Pinger, log *zap.Logger) *Health {
	if log == nil {
		log = zap.NewNop()
	}
	return &Health{
		Service:  service,
		Interval: defaultInterval,
		srv:      health.NewServer(),
		pinger:   p,
		log:      log,
	}
}

// Register installs the health service and reflection on s.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
}

// Check pings the store once and publishes the result for both the overall
// server and the named service.
func (h *Health) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.pinger.Ping(ctx); err != nil {
		h.log.Warn("store ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus("", status)
	if h.Service != "" {
		h.srv.SetServingStatus(h.Service, status)
	}
	return status
}

// Watch re-checks the store every Interval until ctx ends, then marks every
// service as not serving.
func (h *Health) Watch(ctx context.Context) {
	h.Check(ctx)
	t := time.NewTicker(h.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Check(ctx)
		}
	}
}
