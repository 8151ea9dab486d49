package command

import (
	"context"
	"fmt"
	"log"

	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/events"
	"github.com/safebank/bank-api/shared/models"
	"github.com/safebank/bank-api/shared/utils"
)

type CustomerWriter interface {
	Register(ctx context.Context, cred *models.Credential, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
}

// CustomerViewStore is the customer read model, including the open account
// types set that HandleAccountEvent maintains.
type CustomerViewStore interface {
	GetByID(ctx context.Context, id int64) (*models.CustomerView, error)
	CacheCustomerView(ctx context.Context, view *models.CustomerView)
	AddOpenAccountType(ctx context.Context, customerID int64, t models.AccountType)
	RemoveOpenAccountType(ctx context.Context, customerID int64, t models.AccountType)
}

// CustomerCommandService writes customer state to PostgreSQL and keeps the
// Redis read model up to date.
type CustomerCommandService struct {
	writeRepo CustomerWriter
	readRepo  CustomerViewStore
	publisher events.EventPublisher
}

func NewCustomerCommandService(
	writeRepo CustomerWriter,
	readRepo CustomerViewStore,
	publisher events.EventPublisher,
) *CustomerCommandService {
	return &CustomerCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		publisher: publisher,
	}
}

func (s *CustomerCommandService) Register(ctx context.Context, cmd cqrs.RegisterCommand) (*models.Customer, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	cred := &models.Credential{UserName: cmd.UserName, PasswordHash: passwordHash}
	customer := &models.Customer{
		UserName:  cmd.UserName,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Address:   cmd.Address,
	}
	if err := s.writeRepo.Register(ctx, cred, customer); err != nil {
		return nil, err
	}

	s.readRepo.CacheCustomerView(ctx, customerToView(customer))
	if err := s.publisher.Publish(ctx, events.CustomerEventsStream, events.CustomerRegistered, events.CustomerRegisteredEvent{
		CustomerID: customer.ID,
		UserName:   customer.UserName,
	}); err != nil {
		log.Printf("Failed to publish customer.registered event: %v", err)
	}
	return customer, nil
}

func (s *CustomerCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateCustomerCommand) (*models.CustomerView, error) {
	customer := &models.Customer{
		ID:        cmd.CustomerID,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Address:   cmd.Address,
	}
	if err := s.writeRepo.Update(ctx, customer); err != nil {
		return nil, err
	}

	// The username is immutable, so the previous view supplies it.
	view, err := s.readRepo.GetByID(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	view.FirstName = cmd.FirstName
	view.LastName = cmd.LastName
	view.Address = cmd.Address
	s.readRepo.CacheCustomerView(ctx, view)

	if err := s.publisher.Publish(ctx, events.CustomerEventsStream, events.CustomerUpdated, events.CustomerUpdatedEvent{
		CustomerID: cmd.CustomerID,
		FirstName:  cmd.FirstName,
		LastName:   cmd.LastName,
	}); err != nil {
		log.Printf("Failed to publish customer.updated event: %v", err)
	}
	return view, nil
}

// HandleAccountEvent is the account.events subscriber handler. It keeps the
// per-customer set of open account types current.
func (s *CustomerCommandService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountOpened:
		var data events.AccountOpenedEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		log.Printf("Customer %d opened %s account %s", data.CustomerID, models.AccountType(data.AccountType), data.AccountNumber)
		s.readRepo.AddOpenAccountType(ctx, data.CustomerID, models.AccountType(data.AccountType))
	case events.AccountClosed:
		var data events.AccountClosedEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		log.Printf("Customer %d closed %s account", data.CustomerID, models.AccountType(data.AccountType))
		s.readRepo.RemoveOpenAccountType(ctx, data.CustomerID, models.AccountType(data.AccountType))
	}
	return nil
}

func customerToView(c *models.Customer) *models.CustomerView {
	return &models.CustomerView{
		ID:        c.ID,
		UserName:  c.UserName,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Address:   c.Address,
	}
}
