package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// IntegrityReport counts composite accounts that break the
// account/subtype/extension invariants. All zero means consistent.
type IntegrityReport struct {
	AccountsWithoutSubtype  int64
	SubtypesWithoutAccount  int64
	LoansMissingExtension   int64
	ExtensionsWithWrongKind int64
}

func (r IntegrityReport) Total() int64 {
	return r.AccountsWithoutSubtype + r.SubtypesWithoutAccount + r.LoansMissingExtension + r.ExtensionsWithWrongKind
}

var integrityChecks = []struct {
	name  string
	query string
	field func(*IntegrityReport) *int64
}{
	{
		name:  "accounts without subtype",
		query: `
			SELECT COUNT(*) FROM accounts a
			WHERE (a.acct_type = 'C' AND NOT EXISTS (SELECT 1 FROM checking_accounts x WHERE x.cust_id = a.cust_id))
			   OR (a.acct_type = 'S' AND NOT EXISTS (SELECT 1 FROM saving_accounts x WHERE x.cust_id = a.cust_id))
			   OR (a.acct_type = 'L' AND NOT EXISTS (SELECT 1 FROM loan_accounts x WHERE x.cust_id = a.cust_id))
		`,
		field: func(r *IntegrityReport) *int64 { return &r.AccountsWithoutSubtype },
	},
	{
		name:  "subtypes without account",
		query: `
			SELECT
				(SELECT COUNT(*) FROM checking_accounts x LEFT JOIN accounts a ON a.cust_id = x.cust_id AND a.acct_type = x.acct_type WHERE a.cust_id IS NULL) +
				(SELECT COUNT(*) FROM saving_accounts x LEFT JOIN accounts a ON a.cust_id = x.cust_id AND a.acct_type = x.acct_type WHERE a.cust_id IS NULL) +
				(SELECT COUNT(*) FROM loan_accounts x LEFT JOIN accounts a ON a.cust_id = x.cust_id AND a.acct_type = x.acct_type WHERE a.cust_id IS NULL)
		`,
		field: func(r *IntegrityReport) *int64 { return &r.SubtypesWithoutAccount },
	},
	{
		name:  "loans missing extension",
		query: `
			SELECT COUNT(*) FROM loan_accounts l
			WHERE (l.loan_type = 'T' AND NOT EXISTS (SELECT 1 FROM student_loans s WHERE s.cust_id = l.cust_id))
			   OR (l.loan_type = 'H' AND NOT EXISTS (SELECT 1 FROM home_loans h WHERE h.cust_id = l.cust_id))
		`,
		field: func(r *IntegrityReport) *int64 { return &r.LoansMissingExtension },
	},
	{
		name:  "extensions with wrong loan kind",
		query: `
			SELECT
				(SELECT COUNT(*) FROM student_loans s JOIN loan_accounts l ON l.cust_id = s.cust_id WHERE l.loan_type <> 'T') +
				(SELECT COUNT(*) FROM home_loans h JOIN loan_accounts l ON l.cust_id = h.cust_id WHERE l.loan_type <> 'H')
		`,
		field: func(r *IntegrityReport) *int64 { return &r.ExtensionsWithWrongKind },
	},
}

type AccountIntegrityRepository struct {
	db *sql.DB
}

func NewAccountIntegrityRepository(db *sql.DB) *AccountIntegrityRepository {
	return &AccountIntegrityRepository{db: db}
}

// Audit runs every check; the first failing query aborts the audit.
func (r *AccountIntegrityRepository) Audit(ctx context.Context) (*IntegrityReport, error) {
	var report IntegrityReport
	for _, check := range integrityChecks {
		if err := r.db.QueryRowContext(ctx, check.query).Scan(check.field(&report)); err != nil {
			return nil, classify(ctx, fmt.Errorf("integrity check %q: %w", check.name, err))
		}
	}
	return &report, nil
}
