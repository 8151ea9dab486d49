package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/middleware"
	"github.com/safebank/bank-api/shared/models"
)

type CustomerCommander interface {
	UpdateProfile(context.Context, cqrs.UpdateCustomerCommand) (*models.CustomerView, error)
}

type CustomerQuerier interface {
	GetProfile(context.Context, cqrs.GetCustomerQuery) (*models.CustomerView, error)
}

// CustomerHandler serves the session customer's own profile.
type CustomerHandler struct {
	commands CustomerCommander
	queries  CustomerQuerier
}

func NewCustomerHandler(commands CustomerCommander, queries CustomerQuerier) *CustomerHandler {
	return &CustomerHandler{commands: commands, queries: queries}
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=30"`
	LastName  string `json:"last_name" validate:"required,max=30"`
	State     string `json:"state" validate:"required,max=2"`
	City      string `json:"city" validate:"required,max=30"`
	Street    string `json:"street" validate:"required,max=30"`
	Zipcode   string `json:"zipcode" validate:"required,max=5"`
}

func (h *CustomerHandler) GetProfile(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	view, err := h.queries.GetProfile(c.Request.Context(), cqrs.GetCustomerQuery{CustomerID: customerID})
	if err != nil {
		respondWithDomainError(c, err, "User not found", "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User details retrieved successfully",
		"user":    view,
	})
}

func (h *CustomerHandler) UpdateProfile(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	var req UpdateProfileRequest
	rejected, err := middleware.BindJSONRejecting(c, &req, "cust_id", "user_name", "username")
	if rejected != nil {
		middleware.RespondWithValidationError(c, rejected)
		return
	}
	if respondWithBindError(c, req, err) {
		return
	}

	view, err := h.commands.UpdateProfile(c.Request.Context(), cqrs.UpdateCustomerCommand{
		CustomerID: customerID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Address:    models.Address{State: req.State, City: req.City, Street: req.Street, Zipcode: req.Zipcode},
	})
	if err != nil {
		respondWithDomainError(c, err, "User not found", "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully.",
		"user":    view,
	})
}
