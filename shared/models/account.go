package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the one-letter code stored in accounts.acct_type.
type AccountType string

const (
	CheckingAccount AccountType = "C"
	SavingAccount   AccountType = "S"
	LoanAccount     AccountType = "L"
)

func (t AccountType) Valid() bool {
	switch t {
	case CheckingAccount, SavingAccount, LoanAccount:
		return true
	}
	return false
}

func (t AccountType) String() string {
	switch t {
	case CheckingAccount:
		return "checking"
	case SavingAccount:
		return "saving"
	case LoanAccount:
		return "loan"
	}
	return string(t)
}

// LoanKind is the loan_type discriminator on loan_accounts.
type LoanKind string

const (
	PlainLoanKind   LoanKind = "L"
	StudentLoanKind LoanKind = "T"
	HomeLoanKind    LoanKind = "H"
)

func ParseLoanKind(s string) (LoanKind, error) {
	switch k := LoanKind(s); k {
	case PlainLoanKind, StudentLoanKind, HomeLoanKind:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown loan type %q", ErrValidation, s)
}

// HasExtension reports whether loans of this kind carry an extension row.
func (k LoanKind) HasExtension() bool {
	return k == StudentLoanKind || k == HomeLoanKind
}

func (k LoanKind) Label() string {
	switch k {
	case StudentLoanKind:
		return "Student Loan"
	case HomeLoanKind:
		return "Home Loan"
	}
	return "Loan"
}

type StudentType string

const (
	Undergraduate StudentType = "UNDERGRADE"
	Graduate      StudentType = "GRADUATE"
)

// AccountTerms is the type-specific part of an account open request.
// Exactly one of CheckingTerms, SavingTerms or LoanTerms.
type AccountTerms interface {
	AccountType() AccountType
}

type CheckingTerms struct{}

func (CheckingTerms) AccountType() AccountType { return CheckingAccount }

type SavingTerms struct{}

func (SavingTerms) AccountType() AccountType { return SavingAccount }

type LoanTerms struct {
	Amount decimal.Decimal
	Months int
	Detail LoanDetail
}

func (LoanTerms) AccountType() AccountType { return LoanAccount }

// LoanDetail is the kind-specific part of a loan: PlainLoan, StudentLoan or HomeLoan.
type LoanDetail interface {
	Kind() LoanKind
}

type PlainLoan struct{}

func (PlainLoan) Kind() LoanKind { return PlainLoanKind }

type StudentLoan struct {
	StudentID        string      `json:"stud_id"`
	StudentType      StudentType `json:"stud_type"`
	ExpectedGradDate time.Time   `json:"exp_grad_date"`
	UniversityID     int64       `json:"univ_id"`
}

func (StudentLoan) Kind() LoanKind { return StudentLoanKind }

type HomeLoan struct {
	BuiltYear          int             `json:"built_year"`
	InsuranceAccountNo string          `json:"home_ins_acc_no"`
	InsurancePremium   decimal.Decimal `json:"ins_premium"`
	InsuranceCompanyID int64           `json:"ic_id"`
}

func (HomeLoan) Kind() LoanKind { return HomeLoanKind }
