package query

import (
	"context"
	"fmt"

	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/models"
)

type AccountReader interface {
	Get(ctx context.Context, customerID int64, accountType models.AccountType) (*models.AccountView, error)
}

type AccountQueryService struct {
	readRepo AccountReader
}

func NewAccountQueryService(readRepo AccountReader) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

// GetAccount reads the joined account. Ownership is implicit: the session's
// customer id is part of the key.
func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	if !q.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", models.ErrValidation, q.Type)
	}
	return s.readRepo.Get(ctx, q.CustomerID, q.Type)
}
