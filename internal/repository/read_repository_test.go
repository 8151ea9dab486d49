package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/safebank/bank-api/shared/models"
	"github.com/safebank/bank-api/shared/utils"
	"github.com/shopspring/decimal"
)

func newTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

var accountBaseColumns = []string{
	"acct_no", "acct_name", "date_opened",
	"bill_state", "bill_city", "bill_street", "bill_zipcode",
}

func TestAccountGetWarmsCache(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountReadRepository(db, newTestRedis(t), 0)
	opened := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(getCheckingQuery).WithArgs(int64(7)).WillReturnRows(
		sqlmock.NewRows(append(accountBaseColumns, "service_charge")).
			AddRow("7180000001234321", "Alice Checking", opened, "NY", "Brooklyn", "1 Main St", "11201", "12.00"))

	first, err := repo.Get(context.Background(), 7, models.CheckingAccount)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Served from Redis: no second query is expected.
	second, err := repo.Get(context.Background(), 7, models.CheckingAccount)
	if err != nil {
		t.Fatalf("cached Get: %v", err)
	}

	if second.CustomerID != 7 || second.Name != "Alice Checking" {
		t.Fatalf("unexpected cached view: %+v", second)
	}
	if !first.ServiceCharge.Equal(*second.ServiceCharge) {
		t.Fatalf("service charge changed across cache: %s vs %s", first.ServiceCharge, second.ServiceCharge)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAccountGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountReadRepository(db, newTestRedis(t), 0)

	mock.ExpectQuery(getSavingQuery).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(append(accountBaseColumns, "interest_rate")))

	_, err := repo.Get(context.Background(), 7, models.SavingAccount)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountGetHomeLoanJoinsExtension(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountReadRepository(db, newTestRedis(t), 0)
	opened := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	cols := append(append([]string{}, accountBaseColumns...),
		"loan_rate", "loan_amount", "loan_month", "loan_payment", "loan_type",
		"stud_id", "stud_type", "exp_grad_date", "univ_id",
		"built_year", "home_ins_acc_no", "ins_premium", "ic_id")
	mock.ExpectQuery(getLoanQuery).WithArgs(int64(7)).WillReturnRows(
		sqlmock.NewRows(cols).AddRow(
			"7180000001234321", "House", opened, "NY", "Brooklyn", "1 Main St", "11201",
			"1.50", "250000.00", int64(360), "3770.00", "H",
			nil, nil, nil, nil,
			int64(1999), "INS-1", "900.00", int64(2),
		))

	view, err := repo.Get(context.Background(), 7, models.LoanAccount)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Loan == nil || view.Loan.Kind != models.HomeLoanKind {
		t.Fatalf("expected home loan, got %+v", view.Loan)
	}
	if view.Loan.StudentLoan != nil {
		t.Fatalf("home loan must not carry student details")
	}
	if view.Loan.HomeLoan == nil || view.Loan.HomeLoan.BuiltYear != 1999 || view.Loan.HomeLoan.InsuranceCompanyID != 2 {
		t.Fatalf("unexpected home loan details: %+v", view.Loan.HomeLoan)
	}
	if !view.Loan.HomeLoan.InsurancePremium.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected premium %s", view.Loan.HomeLoan.InsurancePremium)
	}
}

func TestAccountInvalidateForcesReload(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountReadRepository(db, newTestRedis(t), 0)
	charge := decimal.NewFromInt(12)

	repo.CacheAccountView(context.Background(), &models.AccountView{
		CustomerID: 7, Type: models.CheckingAccount, Name: "Old", ServiceCharge: &charge,
	})
	repo.InvalidateAccountView(context.Background(), 7, models.CheckingAccount)

	mock.ExpectQuery(getCheckingQuery).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(append(accountBaseColumns, "service_charge")))

	if _, err := repo.Get(context.Background(), 7, models.CheckingAccount); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after invalidation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAccountGetDoesNotResurrectDeletedView(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountReadRepository(db, newTestRedis(t), 0)
	ctx := context.Background()
	opened := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	// The first read is still running when the account is deleted.
	mock.ExpectQuery(getCheckingQuery).WithArgs(int64(7)).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows(append(accountBaseColumns, "service_charge")).
			AddRow("7180000001234321", "Alice Checking", opened, "NY", "Brooklyn", "1 Main St", "11201", "12.00"))
	mock.ExpectQuery(getCheckingQuery).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(append(accountBaseColumns, "service_charge")))

	done := make(chan error, 1)
	go func() {
		_, err := repo.Get(ctx, 7, models.CheckingAccount)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	repo.InvalidateAccountView(ctx, 7, models.CheckingAccount)
	if err := <-done; err != nil {
		t.Fatalf("overlapping Get: %v", err)
	}

	view, err := repo.Get(ctx, 7, models.CheckingAccount)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("deleted account still served: view=%+v err=%v", view, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCustomerGetByIDKeepsNewerWriteThrough(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerReadRepository(db, newTestRedis(t), 0)
	ctx := context.Background()

	mock.ExpectQuery(getCustomerQuery).WithArgs(int64(7)).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"cust_id", "user_name", "first_name", "last_name", "state", "city", "street", "zipcode"}).
			AddRow(int64(7), "alice", "Alice", "Smith", "NY", "Brooklyn", "1 Main St", "11201"))

	done := make(chan error, 1)
	go func() {
		_, err := repo.GetByID(ctx, 7)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	repo.CacheCustomerView(ctx, &models.CustomerView{
		ID: 7, UserName: "alice", FirstName: "Alicia", LastName: "Smith",
		Address: models.Address{State: "NJ", City: "Newark", Street: "2 Broad St", Zipcode: "07102"},
	})
	if err := <-done; err != nil {
		t.Fatalf("overlapping GetByID: %v", err)
	}

	// Served from Redis: no second query is expected.
	view, err := repo.GetByID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if view.FirstName != "Alicia" || view.Address.City != "Newark" {
		t.Fatalf("stale profile served: %+v", view)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCustomerGetByIDAddsOpenAccountTypes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerReadRepository(db, newTestRedis(t), 0)
	ctx := context.Background()

	mock.ExpectQuery(getCustomerQuery).WithArgs(int64(7)).WillReturnRows(
		sqlmock.NewRows([]string{"cust_id", "user_name", "first_name", "last_name", "state", "city", "street", "zipcode"}).
			AddRow(int64(7), "alice", "Alice", "Smith", "NY", "Brooklyn", "1 Main St", "11201"))

	repo.AddOpenAccountType(ctx, 7, models.SavingAccount)
	repo.AddOpenAccountType(ctx, 7, models.CheckingAccount)

	view, err := repo.GetByID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(view.OpenAccountTypes) != 2 || view.OpenAccountTypes[0] != models.CheckingAccount {
		t.Fatalf("expected sorted [C S], got %v", view.OpenAccountTypes)
	}

	repo.RemoveOpenAccountType(ctx, 7, models.CheckingAccount)
	view, err = repo.GetByID(ctx, 7)
	if err != nil {
		t.Fatalf("cached GetByID: %v", err)
	}
	if len(view.OpenAccountTypes) != 1 || view.OpenAccountTypes[0] != models.SavingAccount {
		t.Fatalf("expected [S], got %v", view.OpenAccountTypes)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetForLogin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerReadRepository(db, newTestRedis(t), 0)
	hash, err := utils.HashPassword("pw123")
	if err != nil {
		t.Fatal(err)
	}

	cols := []string{"cust_id", "user_name", "first_name", "last_name", "state", "city", "street", "zipcode", "password_hash"}
	mock.ExpectQuery(getLoginQuery).WithArgs("alice").WillReturnRows(
		sqlmock.NewRows(cols).AddRow(int64(7), "alice", "Alice", "Smith", "NY", "Brooklyn", "1 Main St", "11201", hash))
	mock.ExpectQuery(getLoginQuery).WithArgs("bob").WillReturnRows(sqlmock.NewRows(cols))

	customer, cred, err := repo.GetForLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetForLogin: %v", err)
	}
	if customer.ID != 7 || !utils.CheckPassword("pw123", cred.PasswordHash) {
		t.Fatalf("unexpected login record %+v", customer)
	}

	if _, _, err := repo.GetForLogin(context.Background(), "bob"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
