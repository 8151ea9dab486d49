package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/middleware"
	"github.com/safebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	OpenAccount(context.Context, cqrs.OpenAccountCommand) (*models.AccountView, error)
	UpdateAccount(context.Context, cqrs.UpdateAccountCommand) (*models.AccountView, error)
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
}

const studentGradDateLayout = "2006-01-02"

// frozenAccountFields are set once at open time and rejected on update.
var frozenAccountFields = []string{
	"acct_no", "acct_type", "acct_date_opened",
	"service_charge", "interest_rate",
	"loan_rate", "loan_amount", "loan_month", "loan_payment", "loan_type",
}

type accountRoute struct {
	label      string
	detailsKey string
	updated    string
}

var accountRoutes = map[models.AccountType]accountRoute{
	models.CheckingAccount: {
		label:      "Checking",
		detailsKey: "checkingAccountDetails",
		updated:    "Account updated successfully, no change in service charge allowed.",
	},
	models.SavingAccount: {
		label:      "Saving",
		detailsKey: "savingAccountDetails",
		updated:    "Account updated successfully, no change in interest rate allowed.",
	},
	models.LoanAccount: {
		label:      "Loan",
		detailsKey: "loanAccountDetails",
		updated:    "Loan account updated successfully, no core loan details changed.",
	},
}

// AccountHandler serves the three composite account families. Each route is
// bound to one account type at registration.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

type accountFieldsRequest struct {
	Name        string `json:"acct_name" validate:"required,max=30"`
	BillState   string `json:"acct_bill_state" validate:"required,max=2"`
	BillCity    string `json:"acct_bill_city" validate:"required,max=30"`
	BillStreet  string `json:"acct_bill_street" validate:"required,max=30"`
	BillZipcode string `json:"acct_bill_zipcode" validate:"required,max=5"`
}

func (r accountFieldsRequest) billingAddress() models.Address {
	return models.Address{State: r.BillState, City: r.BillCity, Street: r.BillStreet, Zipcode: r.BillZipcode}
}

// loanExtensionRequest carries the optional student and home loan fields.
// Which ones are required depends on the loan type.
type loanExtensionRequest struct {
	StudID      string `json:"stud_id"`
	StudType    string `json:"stud_type"`
	ExpGradDate string `json:"exp_grad_date"`
	UnivID      int64  `json:"univ_id"`

	BuiltYear    int              `json:"built_year"`
	HomeInsAccNo string           `json:"home_ins_acc_no"`
	InsPremium   *decimal.Decimal `json:"ins_premium"`
	ICID         int64            `json:"ic_id"`
}

type studentLoanFields struct {
	StudID      string `json:"stud_id" validate:"required,max=10"`
	StudType    string `json:"stud_type" validate:"required,oneof=UNDERGRADE GRADUATE"`
	ExpGradDate string `json:"exp_grad_date" validate:"required,datetime=2006-01-02"`
	UnivID      int64  `json:"univ_id" validate:"required,gt=0"`
}

type homeLoanFields struct {
	BuiltYear    int              `json:"built_year" validate:"required,gte=1800"`
	HomeInsAccNo string           `json:"home_ins_acc_no" validate:"required,max=20"`
	InsPremium   *decimal.Decimal `json:"ins_premium" validate:"required"`
	ICID         int64            `json:"ic_id" validate:"required,gt=0"`
}

// detail builds the loan detail for kind, validating only the fields that
// kind needs.
func (r loanExtensionRequest) detail(kind models.LoanKind) (models.LoanDetail, []middleware.ValidationError) {
	switch kind {
	case models.StudentLoanKind:
		fields := studentLoanFields{StudID: r.StudID, StudType: r.StudType, ExpGradDate: r.ExpGradDate, UnivID: r.UnivID}
		if errs := middleware.ValidateRequest(fields); errs != nil {
			return nil, errs
		}
		grad, _ := time.Parse(studentGradDateLayout, fields.ExpGradDate)
		return models.StudentLoan{
			StudentID:        fields.StudID,
			StudentType:      models.StudentType(fields.StudType),
			ExpectedGradDate: grad,
			UniversityID:     fields.UnivID,
		}, nil
	case models.HomeLoanKind:
		fields := homeLoanFields{BuiltYear: r.BuiltYear, HomeInsAccNo: r.HomeInsAccNo, InsPremium: r.InsPremium, ICID: r.ICID}
		if errs := middleware.ValidateRequest(fields); errs != nil {
			return nil, errs
		}
		if fields.InsPremium.IsNegative() {
			return nil, []middleware.ValidationError{{Field: "ins_premium", Message: "Value must be greater than or equal to 0", Type: "gte"}}
		}
		return models.HomeLoan{
			BuiltYear:          fields.BuiltYear,
			InsuranceAccountNo: fields.HomeInsAccNo,
			InsurancePremium:   *fields.InsPremium,
			InsuranceCompanyID: fields.ICID,
		}, nil
	}
	return models.PlainLoan{}, nil
}

type openLoanRequest struct {
	accountFieldsRequest
	LoanAmount decimal.Decimal `json:"loan_amount"`
	LoanMonth  int             `json:"loan_month" validate:"required,gt=0"`
	LoanType   string          `json:"loan_type"`
	loanExtensionRequest
}

type updateAccountRequest struct {
	accountFieldsRequest
	loanExtensionRequest
}

type OpenAccountResponse struct {
	Message    string    `json:"message"`
	AccountNo  string    `json:"acct_no"`
	DateOpened time.Time `json:"acct_date_opened"`
}

func openedMessage(view *models.AccountView) string {
	if view.Loan != nil {
		return view.Loan.Kind.Label() + " account successfully created."
	}
	return accountRoutes[view.Type].label + " account successfully created."
}

// Open returns the handler that opens an account of type t.
func (h *AccountHandler) Open(t models.AccountType) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, _ := middleware.GetCustomerID(c)

		var (
			fields accountFieldsRequest
			terms  models.AccountTerms
		)
		switch t {
		case models.CheckingAccount, models.SavingAccount:
			err := c.ShouldBindJSON(&fields)
			if respondWithBindError(c, fields, err) {
				return
			}
			if t == models.CheckingAccount {
				terms = models.CheckingTerms{}
			} else {
				terms = models.SavingTerms{}
			}
		case models.LoanAccount:
			var req openLoanRequest
			err := c.ShouldBindJSON(&req)
			if respondWithBindError(c, req, err) {
				return
			}
			kindParam := req.LoanType
			if kindParam == "" {
				kindParam = c.Query("loan_type")
			}
			kind, err := models.ParseLoanKind(kindParam)
			if err != nil {
				middleware.RespondWithValidationError(c, []middleware.ValidationError{{
					Field: "loan_type", Message: "Value must be one of: L T H", Type: "oneof",
				}})
				return
			}
			detail, validationErrors := req.detail(kind)
			if validationErrors != nil {
				middleware.RespondWithValidationError(c, validationErrors)
				return
			}
			fields = req.accountFieldsRequest
			terms = models.LoanTerms{Amount: req.LoanAmount, Months: req.LoanMonth, Detail: detail}
		}

		view, err := h.commands.OpenAccount(c.Request.Context(), cqrs.OpenAccountCommand{
			CustomerID:     customerID,
			Name:           fields.Name,
			BillingAddress: fields.billingAddress(),
			Terms:          terms,
		})
		if err != nil {
			respondWithDomainError(c, err, "Some record not found", fmt.Sprintf("Failed to open %s account", t))
			return
		}

		c.JSON(http.StatusOK, OpenAccountResponse{
			Message:    openedMessage(view),
			AccountNo:  view.Number,
			DateOpened: view.DateOpened,
		})
	}
}

// Get returns the handler that reads the session customer's account of type t.
func (h *AccountHandler) Get(t models.AccountType) gin.HandlerFunc {
	route := accountRoutes[t]
	return func(c *gin.Context) {
		customerID, _ := middleware.GetCustomerID(c)

		view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{CustomerID: customerID, Type: t})
		if err != nil {
			respondWithDomainError(c, err, route.label+" account not found", fmt.Sprintf("Failed to get %s account", t))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":        route.label + " account details retrieved successfully.",
			route.detailsKey: view,
		})
	}
}

// Update returns the handler that rewrites the mutable fields of type t.
// Frozen terms in the body are rejected, never ignored.
func (h *AccountHandler) Update(t models.AccountType) gin.HandlerFunc {
	route := accountRoutes[t]
	return func(c *gin.Context) {
		customerID, _ := middleware.GetCustomerID(c)

		var req updateAccountRequest
		rejected, err := middleware.BindJSONRejecting(c, &req, frozenAccountFields...)
		if rejected != nil {
			middleware.RespondWithValidationError(c, rejected)
			return
		}
		if respondWithBindError(c, req.accountFieldsRequest, err) {
			return
		}

		cmd := cqrs.UpdateAccountCommand{
			CustomerID:     customerID,
			Type:           t,
			Name:           req.Name,
			BillingAddress: req.billingAddress(),
		}
		message := route.updated
		if t == models.LoanAccount && c.Query("loan_type") != "" {
			kind, err := models.ParseLoanKind(c.Query("loan_type"))
			if err != nil {
				respondWithDomainError(c, err, "", "")
				return
			}
			if kind.HasExtension() {
				detail, validationErrors := req.detail(kind)
				if validationErrors != nil {
					middleware.RespondWithValidationError(c, validationErrors)
					return
				}
				cmd.Extension = detail
				message = kind.Label() + " account updated successfully."
			}
		}

		view, err := h.commands.UpdateAccount(c.Request.Context(), cmd)
		if err != nil {
			respondWithDomainError(c, err, "No matching account found to update.", "Failed to update account details.")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":        message,
			route.detailsKey: view,
		})
	}
}

// Delete returns the handler that closes the account of type t. Loans accept
// an optional loan_type query parameter that must match the stored kind.
func (h *AccountHandler) Delete(t models.AccountType) gin.HandlerFunc {
	route := accountRoutes[t]
	return func(c *gin.Context) {
		customerID, _ := middleware.GetCustomerID(c)

		cmd := cqrs.DeleteAccountCommand{CustomerID: customerID, Type: t}
		message := route.label + " account deleted successfully."
		if t == models.LoanAccount {
			message = "Loan account and all related details successfully deleted."
			if q := c.Query("loan_type"); q != "" {
				kind, err := models.ParseLoanKind(q)
				if err != nil {
					respondWithDomainError(c, err, "", "")
					return
				}
				cmd.LoanKind = kind
				message = kind.Label() + " account and all related details successfully deleted."
			}
		}

		if err := h.commands.DeleteAccount(c.Request.Context(), cmd); err != nil {
			respondWithDomainError(c, err, "No matching account found to delete.", fmt.Sprintf("Failed to delete %s account", t))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}
