package gettransaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
	"github.com/Xausdorf/qris-hub/internal/domain/repository"
)

type UseCase struct {
	uow repository.UnitOfWork
}

func NewUseCase(uow repository.UnitOfWork) *UseCase {
	return &UseCase{uow: uow}
}

func (uc *UseCase) Execute(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return uc.uow.Transactions().FindByID(ctx, id)
}
