package checkout

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
	"github.com/Xausdorf/qris-hub/internal/domain/qrcode"
	"github.com/Xausdorf/qris-hub/internal/domain/repository"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/metrics"
)

var ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")

// codeAttempts bounds how often a transaction is re-keyed after a code collision.
const codeAttempts = 3

type PaymentCode interface {
	Build(amount int64) (string, error)
	Render(ctx context.Context, payload string) (*qrcode.Image, error)
}

type Request struct {
	IdempotencyKey string
	DomainID       uuid.UUID
	Amount         int64
	Buyer          entity.Buyer
}

type Response struct {
	Transaction *entity.Transaction
	// Image is nil when rendering failed; the transaction is still created.
	Image    *qrcode.Image
	Replayed bool
}

type UseCase struct {
	uow     repository.UnitOfWork
	code    PaymentCode
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewUseCase(uow repository.UnitOfWork, code PaymentCode, m *metrics.Metrics, logger *slog.Logger) *UseCase {
	return &UseCase{
		uow:     uow,
		code:    code,
		metrics: m,
		logger:  logger,
	}
}

func (uc *UseCase) Execute(ctx context.Context, req Request) (*Response, error) {
	txn, err := entity.NewTransaction(req.DomainID, req.Amount, req.Buyer)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := uc.replay(ctx, uc.uow, req)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return uc.respond(ctx, existing, true), nil
		}
	}

	payload, err := uc.code.Build(req.Amount)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		txn.AttachQRIS(payload)

		var existing *entity.Transaction
		existing, err = uc.store(ctx, req, txn)
		if existing != nil {
			return uc.respond(ctx, existing, true), nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) || attempt == codeAttempts {
			break
		}

		uc.logger.Warn("transaction code taken, retrying with a new id",
			"code", txn.Code(), "attempt", attempt)
		if txn, err = entity.NewTransaction(req.DomainID, req.Amount, req.Buyer); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	uc.metrics.CheckoutsCreated.Inc()
	return uc.respond(ctx, txn, false), nil
}

func (uc *UseCase) respond(ctx context.Context, txn *entity.Transaction, replayed bool) *Response {
	resp := &Response{Transaction: txn, Replayed: replayed}
	img, err := uc.code.Render(ctx, txn.QRISData())
	if err != nil {
		uc.logger.Warn("checkout continues without qr image",
			"transaction_id", txn.ID(), "code", txn.Code(), "error", err)
		return resp
	}
	resp.Image = img
	return resp
}

func (uc *UseCase) store(ctx context.Context, req Request, txn *entity.Transaction) (*entity.Transaction, error) {
	if req.IdempotencyKey == "" {
		return nil, uc.uow.Transactions().Create(ctx, txn)
	}
	return uc.createOnce(ctx, req, txn)
}

// createOnce stores txn under the idempotency key. When a concurrent request
// claimed the key first it returns that request's transaction instead.
func (uc *UseCase) createOnce(ctx context.Context, req Request, txn *entity.Transaction) (*entity.Transaction, error) {
	tx, err := uc.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.Idempotency().Lock(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	existing, err := uc.replay(ctx, tx, req)
	if err != nil || existing != nil {
		return existing, err
	}

	if err := tx.Transactions().Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.Idempotency().Save(ctx, entity.NewIdempotencyRecord(req.IdempotencyKey, txn.ID())); err != nil {
		return nil, err
	}

	return nil, tx.Commit(ctx)
}

// replay looks up the transaction stored under the key. A key reused with a
// different domain, amount or buyer is a conflict.
func (uc *UseCase) replay(ctx context.Context, uow repository.UnitOfWork, req Request) (*entity.Transaction, error) {
	record, err := uow.Idempotency().Find(ctx, req.IdempotencyKey)
	if err != nil || record == nil {
		return nil, err
	}

	existing, err := uow.Transactions().FindByID(ctx, record.TransactionID())
	if err != nil {
		return nil, err
	}
	if existing.DomainID() != req.DomainID || existing.Amount() != req.Amount || existing.Buyer() != req.Buyer {
		return nil, ErrIdempotencyConflict
	}
	return existing, nil
}
