package query

import (
	"context"
	"errors"
	"testing"

	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/middleware"
	"github.com/safebank/bank-api/shared/models"
	"github.com/safebank/bank-api/shared/utils"
	"github.com/shopspring/decimal"
)

type mockLoginReader struct {
	customer *models.Customer
	hash     string
}

func (m *mockLoginReader) GetForLogin(_ context.Context, userName string) (*models.Customer, *models.Credential, error) {
	if m.customer == nil || userName != m.customer.UserName {
		return nil, nil, models.ErrNotFound
	}
	return m.customer, &models.Credential{UserName: userName, PasswordHash: m.hash}, nil
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("pw123")
	if err != nil {
		t.Fatal(err)
	}
	sessions, err := middleware.NewSessions("test-secret", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewAuthQueryService(&mockLoginReader{
		customer: &models.Customer{ID: 42, UserName: "alice"},
		hash:     hash,
	}, sessions)

	tests := []struct {
		name     string
		user     string
		password string
		wantErr  error
	}{
		{"success", "alice", "pw123", nil},
		{"unknown user", "bob", "pw123", models.ErrNotFound},
		{"wrong password", "alice", "nope", models.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customer, token, err := svc.Login(context.Background(), cqrs.LoginCommand{UserName: tt.user, Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				return
			}
			if customer.ID != 42 {
				t.Errorf("unexpected customer %+v", customer)
			}
			id, err := sessions.Verify(token)
			if err != nil || id != 42 {
				t.Errorf("issued token does not verify: id=%d err=%v", id, err)
			}
		})
	}
}

type stubAccountReader struct {
	calls int
}

func (s *stubAccountReader) Get(_ context.Context, id int64, t models.AccountType) (*models.AccountView, error) {
	s.calls++
	return &models.AccountView{CustomerID: id, Type: t}, nil
}

func TestGetAccountRejectsUnknownType(t *testing.T) {
	reader := &stubAccountReader{}
	svc := NewAccountQueryService(reader)

	if _, err := svc.GetAccount(context.Background(), cqrs.GetAccountQuery{CustomerID: 7, Type: "X"}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if reader.calls != 0 {
		t.Fatal("unknown type must not reach the repository")
	}
	view, err := svc.GetAccount(context.Background(), cqrs.GetAccountQuery{CustomerID: 7, Type: models.LoanAccount})
	if err != nil || view.Type != models.LoanAccount {
		t.Fatalf("GetAccount: %+v, %v", view, err)
	}
}

type stubRates struct{ rate *models.Rate }

func (s stubRates) Current(_ context.Context, rateID int64) (*models.Rate, error) {
	if s.rate == nil || s.rate.RateID != rateID {
		return nil, models.ErrRateUnavailable
	}
	return s.rate, nil
}

type stubUniversities struct{ list []models.University }

func (s stubUniversities) List(context.Context) ([]models.University, error) { return s.list, nil }
func (s stubUniversities) Get(_ context.Context, id int64) (*models.University, error) {
	for _, u := range s.list {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

type stubInsurers struct{ list []models.InsuranceCompany }

func (s stubInsurers) List(context.Context) ([]models.InsuranceCompany, error) { return s.list, nil }
func (s stubInsurers) Get(context.Context, int64) (*models.InsuranceCompany, error) {
	return nil, models.ErrNotFound
}

func TestReferenceQueries(t *testing.T) {
	rate := &models.Rate{RateID: 3, Version: 4, ServiceCharge: decimal.NewFromInt(12)}
	svc := NewReferenceQueryService(stubRates{rate}, stubUniversities{[]models.University{{ID: 1, Name: "NYU"}}}, stubInsurers{}, 3)
	ctx := context.Background()

	view, err := svc.CurrentRate(ctx)
	if err != nil || view.Version != 4 {
		t.Fatalf("CurrentRate: %+v, %v", view, err)
	}

	unis, err := svc.ListUniversities(ctx)
	if err != nil || len(unis) != 1 {
		t.Fatalf("ListUniversities: %v, %v", unis, err)
	}
	if _, err := svc.GetUniversity(ctx, cqrs.GetUniversityQuery{ID: 2}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.ListInsuranceCompanies(ctx); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("empty insurer table should be not found, got %v", err)
	}

	other := NewReferenceQueryService(stubRates{rate}, stubUniversities{}, stubInsurers{}, 9)
	if _, err := other.CurrentRate(ctx); !errors.Is(err, models.ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}
