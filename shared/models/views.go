package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerView is the read-optimised projection of a customer.
// OpenAccountTypes is denormalised from account events.
type CustomerView struct {
	ID               int64         `json:"cust_id"`
	UserName         string        `json:"user_name"`
	FirstName        string        `json:"first_name"`
	LastName         string        `json:"last_name"`
	Address          Address       `json:"address"`
	OpenAccountTypes []AccountType `json:"open_account_types"`
}

// AccountView is the joined read of an account, its subtype row and, for
// student and home loans, its extension row. Only the fields of its own
// subtype are populated.
type AccountView struct {
	CustomerID     int64            `json:"-"`
	Type           AccountType      `json:"acct_type"`
	Number         string           `json:"acct_no"`
	Name           string           `json:"acct_name"`
	DateOpened     time.Time        `json:"acct_date_opened"`
	BillingAddress Address          `json:"billing_address"`
	ServiceCharge  *decimal.Decimal `json:"service_charge,omitempty"`
	InterestRate   *decimal.Decimal `json:"interest_rate,omitempty"`
	Loan           *LoanView        `json:"loan,omitempty"`
}

type LoanView struct {
	Rate        decimal.Decimal `json:"loan_rate"`
	Amount      decimal.Decimal `json:"loan_amount"`
	Months      int             `json:"loan_month"`
	Payment     decimal.Decimal `json:"loan_payment"`
	Kind        LoanKind        `json:"loan_type"`
	StudentLoan *StudentLoan    `json:"student_loan,omitempty"`
	HomeLoan    *HomeLoan       `json:"home_loan,omitempty"`
}

// RateView is the current version of a rate table.
type RateView struct {
	RateID        int64           `json:"rate_id"`
	Version       int             `json:"version"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	LoanRate      decimal.Decimal `json:"loan_rate"`
	EffectiveAt   time.Time       `json:"effective_at"`
}
