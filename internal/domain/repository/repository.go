package repository

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCode is returned by Create when the transaction code is already taken.
	ErrDuplicateCode = errors.New("duplicate transaction code")
)

// TransactionFilter narrows List. A zero Status matches every status.
type TransactionFilter struct {
	Status entity.TransactionStatus
	Limit  int
}

type TransactionStats struct {
	Revenue      int64
	PendingCount int64
}

type TransactionRepository interface {
	Create(ctx context.Context, t *entity.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	UpdateStatus(ctx context.Context, t *entity.Transaction) error
	// List returns transactions newest first.
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, error)
	// Stats sums completed amounts and counts pending transactions.
	Stats(ctx context.Context) (*TransactionStats, error)
}

type IdempotencyRepository interface {
	Find(ctx context.Context, key string) (*entity.IdempotencyRecord, error)
	Save(ctx context.Context, record *entity.IdempotencyRecord) error
	Lock(ctx context.Context, key string) error
}

type UnitOfWork interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Transactions() TransactionRepository
	Idempotency() IdempotencyRepository
}
