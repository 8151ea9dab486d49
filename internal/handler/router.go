package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safebank/bank-api/shared/middleware"
	"github.com/safebank/bank-api/shared/models"
)

type Handlers struct {
	Auth      *AuthHandler
	Customers *CustomerHandler
	Accounts  *AccountHandler
	Reference *ReferenceHandler
}

// NewRouter mounts every route under /api. requireSession guards everything
// except register, login and logout.
func NewRouter(h Handlers, requireSession gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
	}

	users := api.Group("/users", requireSession)
	{
		users.GET("/get", h.Customers.GetProfile)
		users.PUT("/update", h.Customers.UpdateProfile)
	}

	for prefix, t := range map[string]models.AccountType{
		"/checking_account": models.CheckingAccount,
		"/saving_account":   models.SavingAccount,
		"/loan_account":     models.LoanAccount,
	} {
		accounts := api.Group(prefix, requireSession)
		accounts.POST("/open", h.Accounts.Open(t))
		accounts.GET("/get", h.Accounts.Get(t))
		accounts.PUT("/update", h.Accounts.Update(t))
		accounts.DELETE("/delete", h.Accounts.Delete(t))
	}

	rates := api.Group("/acct_rate", requireSession)
	{
		rates.GET("/service_charge", h.Reference.ServiceCharge)
		rates.GET("/saving_interest_rate", h.Reference.SavingInterestRate)
		rates.GET("/loan_interest_rate", h.Reference.LoanInterestRate)
		rates.POST("/publish", h.Reference.PublishRate)
	}

	universities := api.Group("/university", requireSession)
	{
		universities.POST("/insert", h.Reference.InsertUniversity)
		universities.GET("/get_all", h.Reference.ListUniversities)
		universities.GET("/get", h.Reference.GetUniversity)
		universities.PUT("/update", h.Reference.UpdateUniversity)
	}

	insurers := api.Group("/insur_co", requireSession)
	{
		insurers.POST("/insert", h.Reference.InsertInsuranceCompany)
		insurers.GET("/get_all", h.Reference.ListInsuranceCompanies)
		insurers.GET("/get", h.Reference.GetInsuranceCompany)
		insurers.PUT("/update", h.Reference.UpdateInsuranceCompany)
	}

	return router
}
