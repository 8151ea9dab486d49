package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safebank/bank-api/shared/models"
	"github.com/safebank/bank-api/shared/utils"
	"github.com/shopspring/decimal"
)

const (
	currentRateQuery = `
		SELECT version, service_charge, interest_rate, loan_rate
		FROM account_rates
		WHERE rate_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	insertAccountQuery = `
		INSERT INTO accounts (cust_id, acct_type, acct_no, acct_name, date_opened,
			bill_state, bill_city, bill_street, bill_zipcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	insertCheckingQuery = `INSERT INTO checking_accounts (cust_id, acct_type, service_charge) VALUES ($1, 'C', $2)`
	insertSavingQuery   = `INSERT INTO saving_accounts (cust_id, acct_type, interest_rate) VALUES ($1, 'S', $2)`
	insertLoanQuery     = `
		INSERT INTO loan_accounts (cust_id, acct_type, loan_rate, loan_amount, loan_month, loan_payment, loan_type)
		VALUES ($1, 'L', $2, $3, $4, $5, $6)
	`
	insertStudentLoanQuery = `
		INSERT INTO student_loans (cust_id, acct_type, stud_id, stud_type, exp_grad_date, univ_id)
		VALUES ($1, 'L', $2, $3, $4, $5)
	`
	insertHomeLoanQuery = `
		INSERT INTO home_loans (cust_id, acct_type, built_year, home_ins_acc_no, ins_premium, ic_id)
		VALUES ($1, 'L', $2, $3, $4, $5)
	`

	updateAccountQuery = `
		UPDATE accounts
		SET acct_name = $3, bill_state = $4, bill_city = $5, bill_street = $6, bill_zipcode = $7
		WHERE cust_id = $1 AND acct_type = $2
	`
	updateStudentLoanQuery = `
		UPDATE student_loans
		SET stud_id = $2, stud_type = $3, exp_grad_date = $4, univ_id = $5
		WHERE cust_id = $1 AND acct_type = 'L'
	`
	updateHomeLoanQuery = `
		UPDATE home_loans
		SET built_year = $2, home_ins_acc_no = $3, ins_premium = $4, ic_id = $5
		WHERE cust_id = $1 AND acct_type = 'L'
	`

	storedLoanKindQuery     = `SELECT loan_type FROM loan_accounts WHERE cust_id = $1 AND acct_type = 'L' FOR UPDATE`
	deleteStudentLoanQuery  = `DELETE FROM student_loans WHERE cust_id = $1 AND acct_type = 'L'`
	deleteHomeLoanQuery     = `DELETE FROM home_loans WHERE cust_id = $1 AND acct_type = 'L'`
	deleteCheckingQuery     = `DELETE FROM checking_accounts WHERE cust_id = $1 AND acct_type = 'C'`
	deleteSavingQuery       = `DELETE FROM saving_accounts WHERE cust_id = $1 AND acct_type = 'S'`
	deleteLoanQuery         = `DELETE FROM loan_accounts WHERE cust_id = $1 AND acct_type = 'L'`
	deleteAccountQuery      = `DELETE FROM accounts WHERE cust_id = $1 AND acct_type = $2`
	studentDateLayout       = "2006-01-02"
	loanPaymentDecimalScale = 2
)

// AccountWriteRepository owns the composite write path: an account row, its
// subtype row and, for student and home loans, the extension row are always
// written or removed together in one transaction.
type AccountWriteRepository struct {
	db     *sql.DB
	rateID int64
}

// NewAccountWriteRepository freezes rates from the newest version of rateID.
func NewAccountWriteRepository(db *sql.DB, rateID int64) *AccountWriteRepository {
	return &AccountWriteRepository{db: db, rateID: rateID}
}

type rateSnapshot struct {
	version       int
	serviceCharge decimal.Decimal
	interestRate  decimal.Decimal
	loanRate      decimal.Decimal
}

// Open creates the composite account and returns its view. The rate is read
// inside the same transaction that writes the subtype row.
func (r *AccountWriteRepository) Open(ctx context.Context, account *models.Account, terms models.AccountTerms) (*models.AccountView, error) {
	if terms == nil || terms.AccountType() != account.Type {
		return nil, fmt.Errorf("%w: terms do not match account type %q", models.ErrValidation, account.Type)
	}

	view := &models.AccountView{
		CustomerID:     account.CustomerID,
		Type:           account.Type,
		Number:         account.Number,
		Name:           account.Name,
		DateOpened:     account.DateOpened,
		BillingAddress: account.BillingAddress,
	}
	var rate rateSnapshot

	steps := []txStep{
		{"read current rate", func(ctx context.Context, tx *sql.Tx) error {
			err := tx.QueryRowContext(ctx, currentRateQuery, r.rateID).
				Scan(&rate.version, &rate.serviceCharge, &rate.interestRate, &rate.loanRate)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("rate table %d: %w", r.rateID, models.ErrRateUnavailable)
			}
			return err
		}},
	}

	var loan *models.LoanView
	if lt, ok := terms.(models.LoanTerms); ok {
		if lt.Detail == nil {
			return nil, fmt.Errorf("%w: loan type is required", models.ErrValidation)
		}
		steps = append(steps, txStep{"compute loan payment", func(context.Context, *sql.Tx) error {
			payment, err := utils.MonthlyLoanPayment(lt.Amount, rate.loanRate, lt.Months)
			if err != nil {
				return err
			}
			loan = &models.LoanView{
				Rate:    rate.loanRate,
				Amount:  lt.Amount,
				Months:  lt.Months,
				Payment: decimal.NewFromFloat(payment).Round(loanPaymentDecimalScale),
				Kind:    lt.Detail.Kind(),
			}
			return nil
		}})
	}

	steps = append(steps, txStep{"insert account", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertAccountQuery,
			account.CustomerID, string(account.Type), account.Number, account.Name, account.DateOpened,
			account.BillingAddress.State, account.BillingAddress.City,
			account.BillingAddress.Street, account.BillingAddress.Zipcode,
		)
		return err
	}})

	switch t := terms.(type) {
	case models.CheckingTerms:
		steps = append(steps, txStep{"insert checking account", func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, insertCheckingQuery, account.CustomerID, rate.serviceCharge); err != nil {
				return err
			}
			charge := rate.serviceCharge
			view.ServiceCharge = &charge
			return nil
		}})
	case models.SavingTerms:
		steps = append(steps, txStep{"insert saving account", func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, insertSavingQuery, account.CustomerID, rate.interestRate); err != nil {
				return err
			}
			interest := rate.interestRate
			view.InterestRate = &interest
			return nil
		}})
	case models.LoanTerms:
		steps = append(steps, txStep{"insert loan account", func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, insertLoanQuery,
				account.CustomerID, loan.Rate, loan.Amount, loan.Months, loan.Payment, string(loan.Kind))
			return err
		}})
		if step, ok := insertLoanExtensionStep(account.CustomerID, t.Detail); ok {
			steps = append(steps, step)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported account terms %T", models.ErrValidation, terms)
	}

	if err := runSteps(ctx, r.db, steps...); err != nil {
		return nil, fmt.Errorf("failed to open %s account: %w", account.Type, err)
	}

	if loan != nil {
		lt := terms.(models.LoanTerms)
		switch d := lt.Detail.(type) {
		case models.StudentLoan:
			loan.StudentLoan = &d
		case models.HomeLoan:
			loan.HomeLoan = &d
		}
		view.Loan = loan
	}
	return view, nil
}

func insertLoanExtensionStep(customerID int64, detail models.LoanDetail) (txStep, bool) {
	switch d := detail.(type) {
	case models.StudentLoan:
		return txStep{"insert student loan", func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, insertStudentLoanQuery,
				customerID, d.StudentID, string(d.StudentType), d.ExpectedGradDate.Format(studentDateLayout), d.UniversityID)
			return err
		}}, true
	case models.HomeLoan:
		return txStep{"insert home loan", func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, insertHomeLoanQuery,
				customerID, d.BuiltYear, d.InsuranceAccountNo, d.InsurancePremium, d.InsuranceCompanyID)
			return err
		}}, true
	}
	return txStep{}, false
}

// Update rewrites the account name and billing address and, when extension is
// given, the loan's student or home details. Frozen rates are never touched.
func (r *AccountWriteRepository) Update(ctx context.Context, account *models.Account, extension models.LoanDetail) error {
	steps := []txStep{
		{"update account", func(ctx context.Context, tx *sql.Tx) error {
			return execAffecting(ctx, tx, updateAccountQuery,
				account.CustomerID, string(account.Type), account.Name,
				account.BillingAddress.State, account.BillingAddress.City,
				account.BillingAddress.Street, account.BillingAddress.Zipcode,
			)
		}},
	}

	if extension != nil {
		if account.Type != models.LoanAccount {
			return fmt.Errorf("%w: only loan accounts have loan details", models.ErrValidation)
		}
		switch d := extension.(type) {
		case models.StudentLoan:
			steps = append(steps, txStep{"update student loan", func(ctx context.Context, tx *sql.Tx) error {
				return execAffecting(ctx, tx, updateStudentLoanQuery,
					account.CustomerID, d.StudentID, string(d.StudentType), d.ExpectedGradDate.Format(studentDateLayout), d.UniversityID)
			}})
		case models.HomeLoan:
			steps = append(steps, txStep{"update home loan", func(ctx context.Context, tx *sql.Tx) error {
				return execAffecting(ctx, tx, updateHomeLoanQuery,
					account.CustomerID, d.BuiltYear, d.InsuranceAccountNo, d.InsurancePremium, d.InsuranceCompanyID)
			}})
		case models.PlainLoan:
			// plain loans have no extension row
		default:
			return fmt.Errorf("%w: unsupported loan detail %T", models.ErrValidation, extension)
		}
	}

	if err := runSteps(ctx, r.db, steps...); err != nil {
		return fmt.Errorf("failed to update %s account: %w", account.Type, err)
	}
	return nil
}

// Delete removes extension, subtype and account rows in that order. Every
// step must remove a row; otherwise nothing is deleted and ErrNotFound is
// returned. For loans an empty kind means "whatever kind is stored"; a kind
// that disagrees with the stored one is reported as not found.
func (r *AccountWriteRepository) Delete(ctx context.Context, customerID int64, accountType models.AccountType, kind models.LoanKind) error {
	var steps []txStep

	switch accountType {
	case models.CheckingAccount:
		steps = append(steps, deleteStep("delete checking account", deleteCheckingQuery, customerID))
	case models.SavingAccount:
		steps = append(steps, deleteStep("delete saving account", deleteSavingQuery, customerID))
	case models.LoanAccount:
		steps = append(steps,
			txStep{"resolve loan type", func(ctx context.Context, tx *sql.Tx) error {
				var stored string
				err := tx.QueryRowContext(ctx, storedLoanKindQuery, customerID).Scan(&stored)
				if errors.Is(err, sql.ErrNoRows) {
					return models.ErrNotFound
				}
				if err != nil {
					return err
				}
				if kind != "" && models.LoanKind(stored) != kind {
					return fmt.Errorf("no %s account: %w", kind.Label(), models.ErrNotFound)
				}
				kind = models.LoanKind(stored)
				return nil
			}},
			txStep{"delete loan extension", func(ctx context.Context, tx *sql.Tx) error {
				switch kind {
				case models.StudentLoanKind:
					return execAffecting(ctx, tx, deleteStudentLoanQuery, customerID)
				case models.HomeLoanKind:
					return execAffecting(ctx, tx, deleteHomeLoanQuery, customerID)
				}
				return nil
			}},
			deleteStep("delete loan account", deleteLoanQuery, customerID),
		)
	default:
		return fmt.Errorf("%w: unknown account type %q", models.ErrValidation, accountType)
	}

	steps = append(steps, txStep{"delete account", func(ctx context.Context, tx *sql.Tx) error {
		return execAffecting(ctx, tx, deleteAccountQuery, customerID, string(accountType))
	}})

	if err := runSteps(ctx, r.db, steps...); err != nil {
		return fmt.Errorf("failed to delete %s account: %w", accountType, err)
	}
	return nil
}

func deleteStep(name, query string, customerID int64) txStep {
	return txStep{name, func(ctx context.Context, tx *sql.Tx) error {
		return execAffecting(ctx, tx, query, customerID)
	}}
}
