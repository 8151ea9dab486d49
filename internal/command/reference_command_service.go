package command

import (
	"context"
	"log"

	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/events"
	"github.com/safebank/bank-api/shared/models"
	"github.com/safebank/bank-api/shared/utils"
)

type RatePublisher interface {
	Publish(ctx context.Context, rate *models.Rate) error
}

type UniversityWriter interface {
	Create(ctx context.Context, u *models.University) error
	Update(ctx context.Context, u *models.University) error
}

type InsuranceCompanyWriter interface {
	Create(ctx context.Context, ic *models.InsuranceCompany) error
	Update(ctx context.Context, ic *models.InsuranceCompany) error
}

// ReferenceCommandService manages rate versions and the university and
// insurance company lookup tables.
type ReferenceCommandService struct {
	rates        RatePublisher
	universities UniversityWriter
	insurers     InsuranceCompanyWriter
	publisher    events.EventPublisher
	rateID       int64
}

func NewReferenceCommandService(
	rates RatePublisher,
	universities UniversityWriter,
	insurers InsuranceCompanyWriter,
	publisher events.EventPublisher,
	rateID int64,
) *ReferenceCommandService {
	return &ReferenceCommandService{
		rates:        rates,
		universities: universities,
		insurers:     insurers,
		publisher:    publisher,
		rateID:       rateID,
	}
}

// PublishRate appends a new version to the configured rate table. Accounts
// opened before keep the values they froze.
func (s *ReferenceCommandService) PublishRate(ctx context.Context, cmd cqrs.PublishRateCommand) (*models.RateView, error) {
	rate := &models.Rate{
		RateID:        s.rateID,
		ServiceCharge: cmd.ServiceCharge,
		InterestRate:  cmd.InterestRate,
		LoanRate:      cmd.LoanRate,
		EffectiveAt:   utils.Now(),
	}
	if err := s.rates.Publish(ctx, rate); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.RateEventsStream, events.RatePublished, events.RatePublishedEvent{
		RateID:  rate.RateID,
		Version: rate.Version,
	}); err != nil {
		log.Printf("Failed to publish rate.published event: %v", err)
	}
	return rate.View(), nil
}

func (s *ReferenceCommandService) CreateUniversity(ctx context.Context, cmd cqrs.CreateUniversityCommand) (*models.University, error) {
	u := &models.University{Name: cmd.Name}
	if err := s.universities.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *ReferenceCommandService) UpdateUniversity(ctx context.Context, cmd cqrs.UpdateUniversityCommand) (*models.University, error) {
	u := &models.University{ID: cmd.ID, Name: cmd.Name}
	if err := s.universities.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *ReferenceCommandService) CreateInsuranceCompany(ctx context.Context, cmd cqrs.CreateInsuranceCompanyCommand) (*models.InsuranceCompany, error) {
	ic := insuranceCompany(0, cmd.Name, cmd.Address)
	if err := s.insurers.Create(ctx, ic); err != nil {
		return nil, err
	}
	return ic, nil
}

func (s *ReferenceCommandService) UpdateInsuranceCompany(ctx context.Context, cmd cqrs.UpdateInsuranceCompanyCommand) (*models.InsuranceCompany, error) {
	ic := insuranceCompany(cmd.ID, cmd.Name, cmd.Address)
	if err := s.insurers.Update(ctx, ic); err != nil {
		return nil, err
	}
	return ic, nil
}

func insuranceCompany(id int64, name string, addr models.Address) *models.InsuranceCompany {
	return &models.InsuranceCompany{
		ID:      id,
		Name:    name,
		State:   addr.State,
		City:    addr.City,
		Street:  addr.Street,
		Zipcode: addr.Zipcode,
	}
}
