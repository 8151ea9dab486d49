package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/safebank/bank-api/shared/models"
	sharedredis "github.com/safebank/bank-api/shared/redis"
	"github.com/shopspring/decimal"
)

const accountViewKeyPrefix = "account:view:"

const (
	getCheckingQuery = `
		SELECT a.acct_no, a.acct_name, a.date_opened,
			a.bill_state, a.bill_city, a.bill_street, a.bill_zipcode,
			c.service_charge
		FROM accounts a
		JOIN checking_accounts c ON c.cust_id = a.cust_id AND c.acct_type = a.acct_type
		WHERE a.cust_id = $1 AND a.acct_type = 'C'
	`
	getSavingQuery = `
		SELECT a.acct_no, a.acct_name, a.date_opened,
			a.bill_state, a.bill_city, a.bill_street, a.bill_zipcode,
			s.interest_rate
		FROM accounts a
		JOIN saving_accounts s ON s.cust_id = a.cust_id AND s.acct_type = a.acct_type
		WHERE a.cust_id = $1 AND a.acct_type = 'S'
	`
	getLoanQuery = `
		SELECT a.acct_no, a.acct_name, a.date_opened,
			a.bill_state, a.bill_city, a.bill_street, a.bill_zipcode,
			l.loan_rate, l.loan_amount, l.loan_month, l.loan_payment, l.loan_type,
			st.stud_id, st.stud_type, st.exp_grad_date, st.univ_id,
			h.built_year, h.home_ins_acc_no, h.ins_premium, h.ic_id
		FROM accounts a
		JOIN loan_accounts l ON l.cust_id = a.cust_id AND l.acct_type = a.acct_type
		LEFT JOIN student_loans st ON st.cust_id = l.cust_id AND st.acct_type = l.acct_type AND l.loan_type = 'T'
		LEFT JOIN home_loans h ON h.cust_id = l.cust_id AND h.acct_type = l.acct_type AND l.loan_type = 'H'
		WHERE a.cust_id = $1 AND a.acct_type = 'L'
	`
)

// accountCacheEntry is the Redis representation of an account view. Unlike
// models.AccountView it serialises the owning customer id.
type accountCacheEntry struct {
	CustomerID int64              `json:"custId"`
	View       models.AccountView `json:"view"`
}

// AccountReadRepository serves joined account reads from Redis first and
// falls back to PostgreSQL. A cold read warms the cache unless the view was
// written or invalidated while the query ran.
type AccountReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[accountCacheEntry]
}

func NewAccountReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *AccountReadRepository {
	return &AccountReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[accountCacheEntry](redisClient, accountViewKeyPrefix, ttl),
	}
}

func accountCacheID(customerID int64, accountType models.AccountType) string {
	return strconv.FormatInt(customerID, 10) + ":" + string(accountType)
}

// Get returns the composite view or models.ErrNotFound.
func (r *AccountReadRepository) Get(ctx context.Context, customerID int64, accountType models.AccountType) (*models.AccountView, error) {
	id := accountCacheID(customerID, accountType)
	if entry, ok := r.cache.Get(ctx, id); ok {
		view := entry.View
		view.CustomerID = entry.CustomerID
		return &view, nil
	}

	gen, fill := r.cache.Generation(ctx, id)
	view, err := r.load(ctx, customerID, accountType)
	if err != nil {
		return nil, err
	}

	if fill {
		r.cache.Fill(ctx, id, &accountCacheEntry{CustomerID: view.CustomerID, View: *view}, gen)
	}
	return view, nil
}

func (r *AccountReadRepository) load(ctx context.Context, customerID int64, accountType models.AccountType) (*models.AccountView, error) {
	view := models.AccountView{CustomerID: customerID, Type: accountType}
	base := []any{
		&view.Number, &view.Name, &view.DateOpened,
		&view.BillingAddress.State, &view.BillingAddress.City,
		&view.BillingAddress.Street, &view.BillingAddress.Zipcode,
	}

	var err error
	switch accountType {
	case models.CheckingAccount:
		var charge decimal.Decimal
		err = r.db.QueryRowContext(ctx, getCheckingQuery, customerID).Scan(append(base, &charge)...)
		view.ServiceCharge = &charge
	case models.SavingAccount:
		var interest decimal.Decimal
		err = r.db.QueryRowContext(ctx, getSavingQuery, customerID).Scan(append(base, &interest)...)
		view.InterestRate = &interest
	case models.LoanAccount:
		var row loanRow
		err = r.db.QueryRowContext(ctx, getLoanQuery, customerID).Scan(append(base, row.dest()...)...)
		if err == nil {
			view.Loan = row.view()
		}
	default:
		return nil, fmt.Errorf("%w: unknown account type %q", models.ErrValidation, accountType)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s account: %w", accountType, models.ErrNotFound)
	}
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("failed to get %s account: %w", accountType, err))
	}
	return &view, nil
}

type loanRow struct {
	rate, amount, payment decimal.Decimal
	months                int
	kind                  string

	studID, studType sql.NullString
	gradDate         sql.NullTime
	univID           sql.NullInt64

	builtYear sql.NullInt64
	insAccNo  sql.NullString
	premium   decimal.NullDecimal
	icID      sql.NullInt64
}

func (l *loanRow) dest() []any {
	return []any{
		&l.rate, &l.amount, &l.months, &l.payment, &l.kind,
		&l.studID, &l.studType, &l.gradDate, &l.univID,
		&l.builtYear, &l.insAccNo, &l.premium, &l.icID,
	}
}

func (l *loanRow) view() *models.LoanView {
	v := &models.LoanView{
		Rate:    l.rate,
		Amount:  l.amount,
		Months:  l.months,
		Payment: l.payment,
		Kind:    models.LoanKind(l.kind),
	}
	if l.studID.Valid {
		v.StudentLoan = &models.StudentLoan{
			StudentID:        l.studID.String,
			StudentType:      models.StudentType(l.studType.String),
			ExpectedGradDate: l.gradDate.Time,
			UniversityID:     l.univID.Int64,
		}
	}
	if l.builtYear.Valid {
		v.HomeLoan = &models.HomeLoan{
			BuiltYear:          int(l.builtYear.Int64),
			InsuranceAccountNo: l.insAccNo.String,
			InsurancePremium:   l.premium.Decimal,
			InsuranceCompanyID: l.icID.Int64,
		}
	}
	return v
}

// CacheAccountView stores or refreshes the Redis read model for an account.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	r.cache.Set(ctx, accountCacheID(view.CustomerID, view.Type), &accountCacheEntry{
		CustomerID: view.CustomerID,
		View:       *view,
	})
}

// InvalidateAccountView drops the cached view after an update or delete.
func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, customerID int64, accountType models.AccountType) {
	r.cache.Delete(ctx, accountCacheID(customerID, accountType))
}
