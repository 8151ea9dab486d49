package command

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/events"
	"github.com/safebank/bank-api/shared/models"
	"github.com/safebank/bank-api/shared/utils"
)

// AccountWriter is the composite transaction manager behind the account
// commands. Implemented by repository.AccountWriteRepository.
type AccountWriter interface {
	Open(ctx context.Context, account *models.Account, terms models.AccountTerms) (*models.AccountView, error)
	Update(ctx context.Context, account *models.Account, extension models.LoanDetail) error
	Delete(ctx context.Context, customerID int64, accountType models.AccountType, kind models.LoanKind) error
}

// AccountViewStore is the Redis-backed account read model.
type AccountViewStore interface {
	Get(ctx context.Context, customerID int64, accountType models.AccountType) (*models.AccountView, error)
	CacheAccountView(ctx context.Context, view *models.AccountView)
	InvalidateAccountView(ctx context.Context, customerID int64, accountType models.AccountType)
}

// AccountCommandService writes composite accounts and keeps the read model in sync.
type AccountCommandService struct {
	writeRepo AccountWriter
	readRepo  AccountViewStore
	publisher events.EventPublisher
	txTimeout time.Duration
}

// NewAccountCommandService bounds every composite transaction by txTimeout.
func NewAccountCommandService(
	writeRepo AccountWriter,
	readRepo AccountViewStore,
	publisher events.EventPublisher,
	txTimeout time.Duration,
) *AccountCommandService {
	return &AccountCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		publisher: publisher,
		txTimeout: txTimeout,
	}
}

func (s *AccountCommandService) OpenAccount(ctx context.Context, cmd cqrs.OpenAccountCommand) (*models.AccountView, error) {
	if cmd.Terms == nil {
		return nil, fmt.Errorf("%w: account terms are required", models.ErrValidation)
	}
	account := &models.Account{
		CustomerID:     cmd.CustomerID,
		Type:           cmd.Terms.AccountType(),
		Number:         utils.GenerateAccountNumber(),
		Name:           cmd.Name,
		DateOpened:     utils.Now(),
		BillingAddress: cmd.BillingAddress,
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	view, err := s.writeRepo.Open(txCtx, account, cmd.Terms)
	cancel()
	if err != nil {
		return nil, err
	}

	s.readRepo.CacheAccountView(ctx, view)
	opened := events.AccountOpenedEvent{
		CustomerID:    view.CustomerID,
		AccountType:   string(view.Type),
		AccountNumber: view.Number,
	}
	if view.Loan != nil {
		opened.LoanType = string(view.Loan.Kind)
	}
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountOpened, opened); err != nil {
		log.Printf("Failed to publish account.opened event: %v", err)
	}
	return view, nil
}

// UpdateAccount rewrites the mutable fields and returns the fresh view.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
	account := &models.Account{
		CustomerID:     cmd.CustomerID,
		Type:           cmd.Type,
		Name:           cmd.Name,
		BillingAddress: cmd.BillingAddress,
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	err := s.writeRepo.Update(txCtx, account, cmd.Extension)
	cancel()
	if err != nil {
		return nil, err
	}

	s.readRepo.InvalidateAccountView(ctx, cmd.CustomerID, cmd.Type)
	view, err := s.readRepo.Get(ctx, cmd.CustomerID, cmd.Type)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountUpdated, events.AccountUpdatedEvent{
		CustomerID:  cmd.CustomerID,
		AccountType: string(cmd.Type),
		Name:        cmd.Name,
	}); err != nil {
		log.Printf("Failed to publish account.updated event: %v", err)
	}
	return view, nil
}

func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	err := s.writeRepo.Delete(txCtx, cmd.CustomerID, cmd.Type, cmd.LoanKind)
	cancel()
	if err != nil {
		return err
	}

	s.readRepo.InvalidateAccountView(ctx, cmd.CustomerID, cmd.Type)
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountClosed, events.AccountClosedEvent{
		CustomerID:  cmd.CustomerID,
		AccountType: string(cmd.Type),
	}); err != nil {
		log.Printf("Failed to publish account.closed event: %v", err)
	}
	return nil
}
