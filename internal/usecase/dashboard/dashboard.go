package dashboard

import (
	"context"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
	"github.com/Xausdorf/qris-hub/internal/domain/repository"
)

const RecentLimit = 5

type Response struct {
	// Revenue sums completed transactions only.
	Revenue      int64
	PendingCount int64
	Recent       []*entity.Transaction
}

type UseCase struct {
	uow repository.UnitOfWork
}

func NewUseCase(uow repository.UnitOfWork) *UseCase {
	return &UseCase{uow: uow}
}

func (uc *UseCase) Execute(ctx context.Context) (*Response, error) {
	repo := uc.uow.Transactions()

	stats, err := repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := repo.List(ctx, repository.TransactionFilter{Limit: RecentLimit})
	if err != nil {
		return nil, err
	}

	return &Response{
		Revenue:      stats.Revenue,
		PendingCount: stats.PendingCount,
		Recent:       recent,
	}, nil
}
