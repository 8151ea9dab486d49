package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/middleware"
	"github.com/safebank/bank-api/shared/models"
	"github.com/shopspring/decimal"
)

type ReferenceCommander interface {
	PublishRate(context.Context, cqrs.PublishRateCommand) (*models.RateView, error)
	CreateUniversity(context.Context, cqrs.CreateUniversityCommand) (*models.University, error)
	UpdateUniversity(context.Context, cqrs.UpdateUniversityCommand) (*models.University, error)
	CreateInsuranceCompany(context.Context, cqrs.CreateInsuranceCompanyCommand) (*models.InsuranceCompany, error)
	UpdateInsuranceCompany(context.Context, cqrs.UpdateInsuranceCompanyCommand) (*models.InsuranceCompany, error)
}

type ReferenceQuerier interface {
	CurrentRate(context.Context) (*models.RateView, error)
	ListUniversities(context.Context) ([]models.University, error)
	GetUniversity(context.Context, cqrs.GetUniversityQuery) (*models.University, error)
	ListInsuranceCompanies(context.Context) ([]models.InsuranceCompany, error)
	GetInsuranceCompany(context.Context, cqrs.GetInsuranceCompanyQuery) (*models.InsuranceCompany, error)
}

// ReferenceHandler serves rate tables, universities and insurance companies.
type ReferenceHandler struct {
	commands ReferenceCommander
	queries  ReferenceQuerier
}

func NewReferenceHandler(commands ReferenceCommander, queries ReferenceQuerier) *ReferenceHandler {
	return &ReferenceHandler{commands: commands, queries: queries}
}

// ---------- Rates ----------

func (h *ReferenceHandler) ServiceCharge(c *gin.Context) {
	h.rateField(c, "Service charge retrieved successfully.", "serviceCharge", func(r *models.RateView) gin.H {
		return gin.H{"service_charge": r.ServiceCharge}
	})
}

func (h *ReferenceHandler) SavingInterestRate(c *gin.Context) {
	h.rateField(c, "Saving interest rate retrieved successfully.", "interestRate", func(r *models.RateView) gin.H {
		return gin.H{"interest_rate": r.InterestRate}
	})
}

func (h *ReferenceHandler) LoanInterestRate(c *gin.Context) {
	h.rateField(c, "Loan interest rate retrieved successfully.", "loanInterestRate", func(r *models.RateView) gin.H {
		return gin.H{"loan_rate": r.LoanRate}
	})
}

func (h *ReferenceHandler) rateField(c *gin.Context, message, key string, pick func(*models.RateView) gin.H) {
	rate, err := h.queries.CurrentRate(c.Request.Context())
	if err != nil {
		respondWithDomainError(c, err, "Record not found", "Failed to get rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, key: pick(rate)})
}

type PublishRateRequest struct {
	ServiceCharge decimal.Decimal `json:"service_charge"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	LoanRate      decimal.Decimal `json:"loan_rate"`
}

func (r PublishRateRequest) validate() []middleware.ValidationError {
	var errs []middleware.ValidationError
	if r.ServiceCharge.IsNegative() {
		errs = append(errs, middleware.ValidationError{Field: "service_charge", Message: "Value must be greater than or equal to 0", Type: "gte"})
	}
	if r.InterestRate.IsNegative() {
		errs = append(errs, middleware.ValidationError{Field: "interest_rate", Message: "Value must be greater than or equal to 0", Type: "gte"})
	}
	if !r.LoanRate.IsPositive() {
		errs = append(errs, middleware.ValidationError{Field: "loan_rate", Message: "Value must be greater than 0", Type: "gt"})
	}
	return errs
}

// PublishRate appends a rate version. Existing accounts keep their frozen values.
func (h *ReferenceHandler) PublishRate(c *gin.Context) {
	var req PublishRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := req.validate(); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	rate, err := h.commands.PublishRate(c.Request.Context(), cqrs.PublishRateCommand{
		ServiceCharge: req.ServiceCharge,
		InterestRate:  req.InterestRate,
		LoanRate:      req.LoanRate,
	})
	if err != nil {
		respondWithDomainError(c, err, "Record not found", "Failed to publish rate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate table successfully published.", "rate": rate})
}

// ---------- Universities ----------

type UniversityRequest struct {
	ID   int64  `json:"univ_id"`
	Name string `json:"univ_name" validate:"required,max=50"`
}

func (h *ReferenceHandler) InsertUniversity(c *gin.Context) {
	var req UniversityRequest
	err := c.ShouldBindJSON(&req)
	if respondWithBindError(c, req, err) {
		return
	}
	if _, err := h.commands.CreateUniversity(c.Request.Context(), cqrs.CreateUniversityCommand{Name: req.Name}); err != nil {
		respondWithDomainError(c, err, "Record not found", "Failed to insert university")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "University successfully inserted."})
}

func (h *ReferenceHandler) ListUniversities(c *gin.Context) {
	universities, err := h.queries.ListUniversities(c.Request.Context())
	if err != nil {
		respondWithDomainError(c, err, "Record not found", "Failed to get universities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Universities retrieved successfully.", "universities": universities})
}

func (h *ReferenceHandler) GetUniversity(c *gin.Context) {
	id, ok := queryInt64(c, "univ_id")
	if !ok {
		return
	}
	univ, err := h.queries.GetUniversity(c.Request.Context(), cqrs.GetUniversityQuery{ID: id})
	if err != nil {
		respondWithDomainError(c, err, "Record not found", "Failed to get university")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "University retrieved successfully.", "univ": univ})
}

func (h *ReferenceHandler) UpdateUniversity(c *gin.Context) {
	var req UniversityRequest
	err := c.ShouldBindJSON(&req)
	if respondWithBindError(c, req, err) {
		return
	}
	if req.ID <= 0 {
		middleware.RespondWithValidationError(c, []middleware.ValidationError{{Field: "univ_id", Message: "This field is required", Type: "required"}})
		return
	}
	if _, err := h.commands.UpdateUniversity(c.Request.Context(), cqrs.UpdateUniversityCommand{ID: req.ID, Name: req.Name}); err != nil {
		respondWithDomainError(c, err, "No matching record found to update.", "Failed to update university")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "University updated successfully."})
}

// ---------- Insurance companies ----------

type InsuranceCompanyRequest struct {
	ID      int64  `json:"ic_id"`
	Name    string `json:"ic_name" validate:"required,max=50"`
	State   string `json:"ic_state" validate:"required,max=2"`
	City    string `json:"ic_city" validate:"required,max=30"`
	Street  string `json:"ic_street" validate:"required,max=30"`
	Zipcode string `json:"ic_zipcode" validate:"required,max=5"`
}

func (r InsuranceCompanyRequest) address() models.Address {
	return models.Address{State: r.State, City: r.City, Street: r.Street, Zipcode: r.Zipcode}
}

func (h *ReferenceHandler) InsertInsuranceCompany(c *gin.Context) {
	var req InsuranceCompanyRequest
	err := c.ShouldBindJSON(&req)
	if respondWithBindError(c, req, err) {
		return
	}
	if _, err := h.commands.CreateInsuranceCompany(c.Request.Context(), cqrs.CreateInsuranceCompanyCommand{
		Name:    req.Name,
		Address: req.address(),
	}); err != nil {
		respondWithDomainError(c, err, "Record not found", "Failed to insert insurance company")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Insurance Company successfully inserted."})
}

func (h *ReferenceHandler) ListInsuranceCompanies(c *gin.Context) {
	companies, err := h.queries.ListInsuranceCompanies(c.Request.Context())
	if err != nil {
		respondWithDomainError(c, err, "Record not found", "Failed to get insurance companies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Insurance Company retrieved successfully.", "insuranceCompanies": companies})
}

func (h *ReferenceHandler) GetInsuranceCompany(c *gin.Context) {
	id, ok := queryInt64(c, "ic_id")
	if !ok {
		return
	}
	company, err := h.queries.GetInsuranceCompany(c.Request.Context(), cqrs.GetInsuranceCompanyQuery{ID: id})
	if err != nil {
		respondWithDomainError(c, err, "Record not found", "Failed to get insurance company")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Insurance Company retrieved successfully.", "insuranceCompany": company})
}

func (h *ReferenceHandler) UpdateInsuranceCompany(c *gin.Context) {
	var req InsuranceCompanyRequest
	err := c.ShouldBindJSON(&req)
	if respondWithBindError(c, req, err) {
		return
	}
	if req.ID <= 0 {
		middleware.RespondWithValidationError(c, []middleware.ValidationError{{Field: "ic_id", Message: "This field is required", Type: "required"}})
		return
	}
	if _, err := h.commands.UpdateInsuranceCompany(c.Request.Context(), cqrs.UpdateInsuranceCompanyCommand{
		ID:      req.ID,
		Name:    req.Name,
		Address: req.address(),
	}); err != nil {
		respondWithDomainError(c, err, "No matching record found to update.", "Failed to update insurance company")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Insurance Company updated successfully."})
}
