package generateqr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Xausdorf/qris-hub/internal/domain/qrcode"
	"github.com/Xausdorf/qris-hub/internal/domain/qris"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/metrics"
)

var ErrRender = errors.New("qr rendering failed")

const (
	defaultAttempts      = 3
	defaultRetryInterval = 100 * time.Millisecond
)

type Config struct {
	BasePayload   string
	Render        qrcode.RenderOptions
	Attempts      uint64
	RetryInterval time.Duration
}

type Request struct {
	Amount int64
}

type Response struct {
	Payload string
	Image   *qrcode.Image
}

type UseCase struct {
	generator qrcode.Generator
	cfg       Config
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewUseCase(generator qrcode.Generator, cfg Config, m *metrics.Metrics, logger *slog.Logger) *UseCase {
	if cfg.Attempts == 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	cfg.Render = cfg.Render.WithDefaults()
	return &UseCase{
		generator: generator,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

func (uc *UseCase) Execute(ctx context.Context, req Request) (*Response, error) {
	payload, err := uc.Build(req.Amount)
	if err != nil {
		return nil, err
	}

	img, err := uc.Render(ctx, payload)
	if err != nil {
		return nil, err
	}

	return &Response{Payload: payload, Image: img}, nil
}

// Build is pure and is never retried.
func (uc *UseCase) Build(amount int64) (string, error) {
	payload, err := qris.Build(uc.cfg.BasePayload, amount)
	if err != nil {
		uc.metrics.PayloadErrors.Inc()
		return "", err
	}
	uc.metrics.PayloadsBuilt.Inc()
	return payload, nil
}

// Render encodes payload as a QR image, retrying transient failures with
// exponential backoff. Capacity errors are returned at once.
func (uc *UseCase) Render(ctx context.Context, payload string) (*qrcode.Image, error) {
	start := time.Now()
	defer func() { uc.metrics.RenderDuration.Observe(time.Since(start).Seconds()) }()

	op := func() (*qrcode.Image, error) {
		img, err := uc.generator.Generate(ctx, payload, uc.cfg.Render)
		if errors.Is(err, qrcode.ErrCapacityExceeded) {
			return nil, backoff.Permanent(err)
		}
		return img, err
	}
	notify := func(err error, wait time.Duration) {
		uc.logger.Warn("qr render attempt failed", "error", err, "retry_in", wait)
	}

	img, err := backoff.RetryNotifyWithData(op, uc.newBackOff(ctx), notify)
	if err != nil {
		uc.metrics.RenderFailures.Inc()
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return img, nil
}

func (uc *UseCase) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.cfg.RetryInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uc.cfg.Attempts-1), ctx)
}
