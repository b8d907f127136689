package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	qr "github.com/skip2/go-qrcode"
	"google.golang.org/grpc/health"

	grpcdelivery "github.com/Xausdorf/qris-hub/internal/delivery/grpc"
	httpdelivery "github.com/Xausdorf/qris-hub/internal/delivery/http"
	"github.com/Xausdorf/qris-hub/internal/domain/qris"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/config"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/metrics"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/postgres"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/qrgenerator"
	"github.com/Xausdorf/qris-hub/internal/usecase/checkout"
	"github.com/Xausdorf/qris-hub/internal/usecase/dashboard"
	"github.com/Xausdorf/qris-hub/internal/usecase/generateqr"
	"github.com/Xausdorf/qris-hub/internal/usecase/gettransaction"
	"github.com/Xausdorf/qris-hub/internal/usecase/listtransactions"
	"github.com/Xausdorf/qris-hub/internal/usecase/updatestatus"
)

const (
	readHeaderTimeout     = 5 * time.Second
	gracefulShutdownDelay = 5 * time.Second

	dbMaxConns        = 10
	dbMinConns        = 2
	dbMaxConnLifetime = 30 * time.Minute
	dbMaxConnIdleTime = 5 * time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	if err := qris.Verify(cfg.BasePayload); err != nil {
		// The base checksum is regenerated on every build; a bad one only hints at a typo.
		logger.Warn("base qris payload did not verify", "error", err)
	}
	if _, err := qris.Build(cfg.BasePayload, 1); err != nil {
		logger.Error("base qris payload is unusable", "error", err)
		os.Exit(1)
	}

	pool, err := initDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	uow := postgres.NewUnitOfWork(pool)
	qrGen := qrgenerator.NewGenerator(qr.Medium)

	generateQRUC := generateqr.NewUseCase(qrGen, generateqr.Config{
		BasePayload:   cfg.BasePayload,
		Render:        cfg.Render,
		Attempts:      cfg.RenderAttempts,
		RetryInterval: cfg.RetryInterval,
	}, m, logger)
	checkoutUC := checkout.NewUseCase(uow, generateQRUC, m, logger)
	getTransactionUC := gettransaction.NewUseCase(uow)
	listTransactionsUC := listtransactions.NewUseCase(uow)
	updateStatusUC := updatestatus.NewUseCase(uow, m)
	dashboardUC := dashboard.NewUseCase(uow)

	handler := httpdelivery.NewHandler(generateQRUC, checkoutUC, getTransactionUC, listTransactionsUC,
		updateStatusUC, dashboardUC, logger)
	router := httpdelivery.NewRouter(handler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	healthSrv := health.NewServer()
	grpcSrv := grpcdelivery.NewServer(healthSrv)
	watcher := grpcdelivery.NewHealthWatcher(healthSrv, pool, cfg.HealthInterval, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "error", err)
		os.Exit(1)
	}

	go watcher.Run(ctx)

	go func() {
		logger.Info("gRPC health server starting", "addr", cfg.GRPCAddr)
		if serveErr := grpcSrv.Serve(lis); serveErr != nil {
			logger.Error("grpc serve failed", "error", serveErr)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", serveErr)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownDelay)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
}

func initDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = dbMaxConns
	cfg.MinConns = dbMinConns
	cfg.MaxConnLifetime = dbMaxConnLifetime
	cfg.MaxConnIdleTime = dbMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
