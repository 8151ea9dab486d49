package query

import (
	"context"
	"fmt"

	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/models"
)

type RateReader interface {
	Current(ctx context.Context, rateID int64) (*models.Rate, error)
}

type UniversityReader interface {
	List(ctx context.Context) ([]models.University, error)
	Get(ctx context.Context, id int64) (*models.University, error)
}

type InsuranceCompanyReader interface {
	List(ctx context.Context) ([]models.InsuranceCompany, error)
	Get(ctx context.Context, id int64) (*models.InsuranceCompany, error)
}

// ReferenceQueryService serves the current rate version and the lookup
// tables that loan extensions point at.
type ReferenceQueryService struct {
	rates        RateReader
	universities UniversityReader
	insurers     InsuranceCompanyReader
	rateID       int64
}

func NewReferenceQueryService(rates RateReader, universities UniversityReader, insurers InsuranceCompanyReader, rateID int64) *ReferenceQueryService {
	return &ReferenceQueryService{
		rates:        rates,
		universities: universities,
		insurers:     insurers,
		rateID:       rateID,
	}
}

// CurrentRate reads the newest version of the configured rate table.
func (s *ReferenceQueryService) CurrentRate(ctx context.Context) (*models.RateView, error) {
	rate, err := s.rates.Current(ctx, s.rateID)
	if err != nil {
		return nil, err
	}
	return rate.View(), nil
}

// ListUniversities reports an empty table as models.ErrNotFound.
func (s *ReferenceQueryService) ListUniversities(ctx context.Context) ([]models.University, error) {
	list, err := s.universities.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("universities: %w", models.ErrNotFound)
	}
	return list, nil
}

func (s *ReferenceQueryService) GetUniversity(ctx context.Context, q cqrs.GetUniversityQuery) (*models.University, error) {
	return s.universities.Get(ctx, q.ID)
}

func (s *ReferenceQueryService) ListInsuranceCompanies(ctx context.Context) ([]models.InsuranceCompany, error) {
	list, err := s.insurers.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("insurance companies: %w", models.ErrNotFound)
	}
	return list, nil
}

func (s *ReferenceQueryService) GetInsuranceCompany(ctx context.Context, q cqrs.GetInsuranceCompanyQuery) (*models.InsuranceCompany, error) {
	return s.insurers.Get(ctx, q.ID)
}
