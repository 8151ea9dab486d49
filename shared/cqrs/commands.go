package cqrs

import (
	"github.com/safebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
)

type RegisterCommand struct {
	UserName  string
	Password  string
	FirstName string
	LastName  string
	Address   models.Address
}

type UpdateCustomerCommand struct {
	CustomerID int64
	FirstName  string
	LastName   string
	Address    models.Address
}

type LoginCommand struct {
	UserName string
	Password string
}

// OpenAccountCommand opens the composite account identified by
// (CustomerID, Terms.AccountType()).
type OpenAccountCommand struct {
	CustomerID     int64
	Name           string
	BillingAddress models.Address
	Terms          models.AccountTerms
}

// UpdateAccountCommand changes the mutable account fields. Extension is set
// only for loans whose student or home details should be rewritten as well.
type UpdateAccountCommand struct {
	CustomerID     int64
	Type           models.AccountType
	Name           string
	BillingAddress models.Address
	Extension      models.LoanDetail
}

// DeleteAccountCommand removes a composite account. LoanKind is optional for
// loans; when empty the stored kind is used.
type DeleteAccountCommand struct {
	CustomerID int64
	Type       models.AccountType
	LoanKind   models.LoanKind
}

type PublishRateCommand struct {
	ServiceCharge decimal.Decimal
	InterestRate  decimal.Decimal
	LoanRate      decimal.Decimal
}

type CreateUniversityCommand struct {
	Name string
}

type UpdateUniversityCommand struct {
	ID   int64
	Name string
}

type CreateInsuranceCompanyCommand struct {
	Name    string
	Address models.Address
}

type UpdateInsuranceCompanyCommand struct {
	ID      int64
	Name    string
	Address models.Address
}
