package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/middleware"
	"github.com/safebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
)

// ---- mock implementations ----

type mockAccountCommander struct {
	openFn   func(cqrs.OpenAccountCommand) (*models.AccountView, error)
	updateFn func(cqrs.UpdateAccountCommand) (*models.AccountView, error)
	deleteFn func(cqrs.DeleteAccountCommand) error
}

func (m *mockAccountCommander) OpenAccount(_ context.Context, cmd cqrs.OpenAccountCommand) (*models.AccountView, error) {
	if m.openFn != nil {
		return m.openFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountCommander) UpdateAccount(_ context.Context, cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountCommander) DeleteAccount(_ context.Context, cmd cqrs.DeleteAccountCommand) error {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockAccountQuerier struct {
	getFn func(cqrs.GetAccountQuery) (*models.AccountView, error)
}

func (m *mockAccountQuerier) GetAccount(_ context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeSession(customerID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CustomerIDKey, customerID)
		c.Next()
	}
}

func newAccountTestRouter(cmds AccountCommander, qrys AccountQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeSession(7))
	h := NewAccountHandler(cmds, qrys)
	for prefix, t := range map[string]models.AccountType{
		"/checking_account": models.CheckingAccount,
		"/saving_account":   models.SavingAccount,
		"/loan_account":     models.LoanAccount,
	} {
		g := r.Group(prefix)
		g.POST("/open", h.Open(t))
		g.GET("/get", h.Get(t))
		g.PUT("/update", h.Update(t))
		g.DELETE("/delete", h.Delete(t))
	}
	return r
}

func doRequest(router http.Handler, method, url string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, url, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return out
}

// ---- test data ----

func validAccountBody() map[string]any {
	return map[string]any{
		"acct_name":         "Alice Checking",
		"acct_bill_state":   "NY",
		"acct_bill_city":    "Brooklyn",
		"acct_bill_street":  "1 Main St",
		"acct_bill_zipcode": "11201",
	}
}

func withFields(base map[string]any, extra map[string]any) map[string]any {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func openedView(cmd cqrs.OpenAccountCommand) *models.AccountView {
	view := &models.AccountView{
		CustomerID: cmd.CustomerID,
		Type:       cmd.Terms.AccountType(),
		Number:     "7180000001234321",
		Name:       cmd.Name,
		DateOpened: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	}
	if lt, ok := cmd.Terms.(models.LoanTerms); ok {
		view.Loan = &models.LoanView{Kind: lt.Detail.Kind(), Amount: lt.Amount, Months: lt.Months}
	}
	return view
}

// ---- tests ----

func TestOpenAccount(t *testing.T) {
	tests := []struct {
		name            string
		url             string
		body            any
		openFn          func(cqrs.OpenAccountCommand) (*models.AccountView, error)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "success - checking",
			url:  "/checking_account/open",
			body: validAccountBody(),
			openFn: func(cmd cqrs.OpenAccountCommand) (*models.AccountView, error) {
				if cmd.CustomerID != 7 || cmd.BillingAddress.City != "Brooklyn" {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return openedView(cmd), nil
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Checking account successfully created.",
		},
		{
			name:            "success - saving",
			url:             "/saving_account/open",
			body:            validAccountBody(),
			openFn:          func(cmd cqrs.OpenAccountCommand) (*models.AccountView, error) { return openedView(cmd), nil },
			expectedStatus:  http.StatusOK,
			expectedMessage: "Saving account successfully created.",
		},
		{
			name: "success - student loan",
			url:  "/loan_account/open",
			body: withFields(validAccountBody(), map[string]any{
				"loan_amount": "10000", "loan_month": 24, "loan_type": "T",
				"stud_id": "S1234", "stud_type": "GRADUATE", "exp_grad_date": "2027-05-15", "univ_id": 3,
			}),
			openFn: func(cmd cqrs.OpenAccountCommand) (*models.AccountView, error) {
				lt := cmd.Terms.(models.LoanTerms)
				s, ok := lt.Detail.(models.StudentLoan)
				if !ok || s.ExpectedGradDate.Year() != 2027 || !lt.Amount.Equal(decimal.NewFromInt(10000)) {
					return nil, fmt.Errorf("unexpected terms %+v", lt)
				}
				return openedView(cmd), nil
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Student Loan account successfully created.",
		},
		{
			name: "success - home loan via query parameter",
			url:  "/loan_account/open?loan_type=H",
			body: withFields(validAccountBody(), map[string]any{
				"loan_amount": 250000, "loan_month": 360,
				"built_year": 1999, "home_ins_acc_no": "INS-1", "ins_premium": "900.00", "ic_id": 2,
			}),
			openFn:          func(cmd cqrs.OpenAccountCommand) (*models.AccountView, error) { return openedView(cmd), nil },
			expectedStatus:  http.StatusOK,
			expectedMessage: "Home Loan account successfully created.",
		},
		{
			name: "bad request - student loan without student fields",
			url:  "/loan_account/open",
			body: withFields(validAccountBody(), map[string]any{
				"loan_amount": "10000", "loan_month": 24, "loan_type": "T",
			}),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request data",
		},
		{
			name: "bad request - unknown loan type",
			url:  "/loan_account/open",
			body: withFields(validAccountBody(), map[string]any{
				"loan_amount": "10000", "loan_month": 24, "loan_type": "Z",
			}),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request data",
		},
		{
			name:            "bad request - missing required fields",
			url:             "/checking_account/open",
			body:            map[string]any{"acct_name": "x"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request data",
		},
		{
			name: "conflict - account number collision",
			url:  "/checking_account/open",
			body: validAccountBody(),
			openFn: func(cqrs.OpenAccountCommand) (*models.AccountView, error) {
				return nil, fmt.Errorf("failed to open checking account: %w", models.ErrConflict)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "service unavailable - transaction timeout",
			url:  "/saving_account/open",
			body: validAccountBody(),
			openFn: func(cqrs.OpenAccountCommand) (*models.AccountView, error) {
				return nil, models.ErrTimeout
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name: "bad request - zero loan rate",
			url:  "/loan_account/open",
			body: withFields(validAccountBody(), map[string]any{"loan_amount": "1000", "loan_month": 12, "loan_type": "L"}),
			openFn: func(cqrs.OpenAccountCommand) (*models.AccountView, error) {
				return nil, fmt.Errorf("%w: loan rate must be positive", models.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{openFn: tt.openFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodPost, tt.url, tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedMessage != "" {
				if got := decodeBody(t, w)["message"]; got != tt.expectedMessage {
					t.Errorf("expected message %q, got %q", tt.expectedMessage, got)
				}
			}
			if tt.expectedStatus == http.StatusServiceUnavailable && w.Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After header on timeout")
			}
		})
	}
}

func TestOpenAccountResponseCarriesNumberAndDate(t *testing.T) {
	router := newAccountTestRouter(&mockAccountCommander{
		openFn: func(cmd cqrs.OpenAccountCommand) (*models.AccountView, error) { return openedView(cmd), nil },
	}, &mockAccountQuerier{})

	w := doRequest(router, http.MethodPost, "/checking_account/open", validAccountBody())
	body := decodeBody(t, w)
	if body["acct_no"] != "7180000001234321" {
		t.Errorf("expected acct_no, got %v", body["acct_no"])
	}
	if body["acct_date_opened"] != "2024-06-10T09:00:00Z" {
		t.Errorf("expected acct_date_opened, got %v", body["acct_date_opened"])
	}
}

func TestGetAccount(t *testing.T) {
	charge := decimal.RequireFromString("12.00")
	tests := []struct {
		name           string
		url            string
		getFn          func(cqrs.GetAccountQuery) (*models.AccountView, error)
		expectedStatus int
		detailsKey     string
	}{
		{
			name: "success - checking",
			url:  "/checking_account/get",
			getFn: func(q cqrs.GetAccountQuery) (*models.AccountView, error) {
				return &models.AccountView{CustomerID: q.CustomerID, Type: q.Type, Name: "Alice Checking", ServiceCharge: &charge}, nil
			},
			expectedStatus: http.StatusOK,
			detailsKey:     "checkingAccountDetails",
		},
		{
			name: "success - loan",
			url:  "/loan_account/get",
			getFn: func(q cqrs.GetAccountQuery) (*models.AccountView, error) {
				return &models.AccountView{Type: q.Type, Loan: &models.LoanView{Kind: models.PlainLoanKind}}, nil
			},
			expectedStatus: http.StatusOK,
			detailsKey:     "loanAccountDetails",
		},
		{
			name: "not found",
			url:  "/saving_account/get",
			getFn: func(cqrs.GetAccountQuery) (*models.AccountView, error) {
				return nil, models.ErrNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "server error",
			url:  "/saving_account/get",
			getFn: func(cqrs.GetAccountQuery) (*models.AccountView, error) {
				return nil, fmt.Errorf("connection refused")
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{getFn: tt.getFn})
			w := doRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.detailsKey != "" {
				if _, ok := decodeBody(t, w)[tt.detailsKey]; !ok {
					t.Errorf("expected %s in response", tt.detailsKey)
				}
			}
		})
	}
}

func TestGetCheckingServiceChargeInBody(t *testing.T) {
	charge := decimal.RequireFromString("12.00")
	router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{
		getFn: func(q cqrs.GetAccountQuery) (*models.AccountView, error) {
			return &models.AccountView{Type: q.Type, Name: "Alice Checking", ServiceCharge: &charge}, nil
		},
	})

	w := doRequest(router, http.MethodGet, "/checking_account/get", nil)
	details := decodeBody(t, w)["checkingAccountDetails"].(map[string]any)
	if details["acct_name"] != "Alice Checking" || details["service_charge"] != "12" {
		t.Errorf("unexpected details %v", details)
	}
	if _, ok := details["loan"]; ok {
		t.Error("checking account must not expose loan fields")
	}
}

func TestUpdateAccount(t *testing.T) {
	tests := []struct {
		name            string
		url             string
		body            any
		updateFn        func(cqrs.UpdateAccountCommand) (*models.AccountView, error)
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "success - checking",
			url:  "/checking_account/update",
			body: validAccountBody(),
			updateFn: func(cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
				if cmd.Extension != nil {
					return nil, fmt.Errorf("unexpected extension")
				}
				return &models.AccountView{Type: cmd.Type, Name: cmd.Name}, nil
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Account updated successfully, no change in service charge allowed.",
		},
		{
			name:            "bad request - frozen service charge",
			url:             "/checking_account/update",
			body:            withFields(validAccountBody(), map[string]any{"service_charge": "0.01"}),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request data",
		},
		{
			name:            "bad request - frozen loan rate",
			url:             "/loan_account/update",
			body:            withFields(validAccountBody(), map[string]any{"loan_rate": "0.01", "loan_payment": "1"}),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid request data",
		},
		{
			name: "success - home loan extension",
			url:  "/loan_account/update?loan_type=H",
			body: withFields(validAccountBody(), map[string]any{
				"built_year": 2001, "home_ins_acc_no": "INS-2", "ins_premium": "950.00", "ic_id": 2,
			}),
			updateFn: func(cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
				if h, ok := cmd.Extension.(models.HomeLoan); !ok || h.BuiltYear != 2001 {
					return nil, fmt.Errorf("unexpected extension %+v", cmd.Extension)
				}
				return &models.AccountView{Type: cmd.Type}, nil
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Home Loan account updated successfully.",
		},
		{
			name: "success - plain loan ignores extension",
			url:  "/loan_account/update?loan_type=L",
			body: validAccountBody(),
			updateFn: func(cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
				return &models.AccountView{Type: cmd.Type}, nil
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Loan account updated successfully, no core loan details changed.",
		},
		{
			name: "not found",
			url:  "/saving_account/update",
			body: validAccountBody(),
			updateFn: func(cqrs.UpdateAccountCommand) (*models.AccountView, error) {
				return nil, models.ErrNotFound
			},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "No matching account found to update.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{updateFn: tt.updateFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodPut, tt.url, tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if got := decodeBody(t, w)["message"]; got != tt.expectedMessage {
				t.Errorf("expected message %q, got %q", tt.expectedMessage, got)
			}
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	tests := []struct {
		name            string
		url             string
		deleteFn        func(cqrs.DeleteAccountCommand) error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "success - checking",
			url:             "/checking_account/delete",
			deleteFn:        func(cqrs.DeleteAccountCommand) error { return nil },
			expectedStatus:  http.StatusOK,
			expectedMessage: "Checking account deleted successfully.",
		},
		{
			name: "success - student loan",
			url:  "/loan_account/delete?loan_type=T",
			deleteFn: func(cmd cqrs.DeleteAccountCommand) error {
				if cmd.LoanKind != models.StudentLoanKind {
					return fmt.Errorf("unexpected kind %q", cmd.LoanKind)
				}
				return nil
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Student Loan account and all related details successfully deleted.",
		},
		{
			name:           "bad request - unknown loan type",
			url:            "/loan_account/delete?loan_type=Q",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found",
			url:            "/saving_account/delete",
			deleteFn:       func(cqrs.DeleteAccountCommand) error { return models.ErrNotFound },
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{deleteFn: tt.deleteFn}, &mockAccountQuerier{})
			w := doRequest(router, http.MethodDelete, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedMessage != "" {
				if got := decodeBody(t, w)["message"]; got != tt.expectedMessage {
					t.Errorf("expected message %q, got %q", tt.expectedMessage, got)
				}
			}
		})
	}
}
