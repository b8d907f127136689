package updatestatus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
	"github.com/Xausdorf/qris-hub/internal/domain/repository"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/metrics"
)

type Request struct {
	TransactionID uuid.UUID
	Status        entity.TransactionStatus
	VerifiedBy    string
}

type UseCase struct {
	uow     repository.UnitOfWork
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewUseCase(uow repository.UnitOfWork, m *metrics.Metrics) *UseCase {
	return &UseCase{uow: uow, metrics: m, now: time.Now}
}

func (uc *UseCase) Execute(ctx context.Context, req Request) (*entity.Transaction, error) {
	tx, err := uc.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txn, err := tx.Transactions().FindByIDForUpdate(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	if err := txn.ChangeStatus(req.Status, req.VerifiedBy, uc.now()); err != nil {
		return nil, err
	}

	if err := tx.Transactions().UpdateStatus(ctx, txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.IncrementStatusChange(string(txn.Status()))
	return txn, nil
}
