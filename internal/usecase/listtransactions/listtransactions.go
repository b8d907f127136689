package listtransactions

import (
	"context"
	"errors"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
	"github.com/Xausdorf/qris-hub/internal/domain/repository"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var ErrInvalidLimit = errors.New("limit must not be negative")

type Request struct {
	// Status is optional; empty lists every status.
	Status entity.TransactionStatus
	Limit  int
}

type UseCase struct {
	uow repository.UnitOfWork
}

func NewUseCase(uow repository.UnitOfWork) *UseCase {
	return &UseCase{uow: uow}
}

// Execute returns transactions newest first. Limit defaults to DefaultLimit
// and is capped at MaxLimit.
func (uc *UseCase) Execute(ctx context.Context, req Request) ([]*entity.Transaction, error) {
	limit := req.Limit
	switch {
	case limit < 0:
		return nil, ErrInvalidLimit
	case limit == 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	return uc.uow.Transactions().List(ctx, repository.TransactionFilter{
		Status: req.Status,
		Limit:  limit,
	})
}
