package query

import (
	"context"

	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/models"
	"github.com/safebank/bank-api/shared/utils"
)

type LoginReader interface {
	GetForLogin(ctx context.Context, userName string) (*models.Customer, *models.Credential, error)
}

// TokenIssuer signs session tokens. Implemented by middleware.Sessions.
type TokenIssuer interface {
	Issue(customerID int64) (string, error)
}

// AuthQueryService handles login. There's no CommandService for auth
// because logging in doesn't mutate application state.
type AuthQueryService struct {
	customers LoginReader
	tokens    TokenIssuer
}

func NewAuthQueryService(customers LoginReader, tokens TokenIssuer) *AuthQueryService {
	return &AuthQueryService{customers: customers, tokens: tokens}
}

// Login returns the customer and a signed session token. An unknown username
// yields models.ErrNotFound; a wrong password models.ErrInvalidCredentials.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.Customer, string, error) {
	customer, cred, err := s.customers.GetForLogin(ctx, cmd.UserName)
	if err != nil {
		return nil, "", err
	}
	if !utils.CheckPassword(cmd.Password, cred.PasswordHash) {
		return nil, "", models.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(customer.ID)
	if err != nil {
		return nil, "", err
	}
	return customer, token, nil
}
