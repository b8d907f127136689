package grpc //nolint:revive // directory-based package name, imported with alias

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewServer(h *health.Server) *grpc.Server {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	reflection.Register(srv)
	return srv
}

// HealthWatcher keeps the overall serving status in line with the database.
type HealthWatcher struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	logger   *slog.Logger
}

func NewHealthWatcher(h *health.Server, pinger Pinger, interval time.Duration, logger *slog.Logger) *HealthWatcher {
	return &HealthWatcher{
		health:   h,
		pinger:   pinger,
		interval: interval,
		logger:   logger,
	}
}

func (w *HealthWatcher) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := w.pinger.Ping(pingCtx); err != nil {
		w.logger.Warn("database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	w.health.SetServingStatus("", status)
	return status
}

func (w *HealthWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			w.health.Shutdown()
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
