package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safebank/bank-api/shared/cqrs"
	"github.com/safebank/bank-api/shared/middleware"
	"github.com/safebank/bank-api/shared/models"
)

type Registrar interface {
	Register(context.Context, cqrs.RegisterCommand) (*models.Customer, error)
}

type Authenticator interface {
	Login(context.Context, cqrs.LoginCommand) (*models.Customer, string, error)
}

// SessionCookies writes and clears the session cookie. Implemented by
// middleware.Sessions.
type SessionCookies interface {
	SetCookie(c *gin.Context, token string)
	ClearCookie(c *gin.Context)
}

type AuthHandler struct {
	registrar Registrar
	auth      Authenticator
	cookies   SessionCookies
}

func NewAuthHandler(registrar Registrar, auth Authenticator, cookies SessionCookies) *AuthHandler {
	return &AuthHandler{registrar: registrar, auth: auth, cookies: cookies}
}

type RegisterRequest struct {
	UserName  string `json:"username" validate:"required,max=30"`
	Password  string `json:"password" validate:"required,min=4"`
	FirstName string `json:"firstName" validate:"required,max=30"`
	LastName  string `json:"lastName" validate:"required,max=30"`
	State     string `json:"state" validate:"required,max=2"`
	City      string `json:"city" validate:"required,max=30"`
	Street    string `json:"street" validate:"required,max=30"`
	Zipcode   string `json:"zipCode" validate:"required,max=5"`
}

type LoginRequest struct {
	UserName string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	err := c.ShouldBindJSON(&req)
	if respondWithBindError(c, req, err) {
		return
	}

	_, err = h.registrar.Register(c.Request.Context(), cqrs.RegisterCommand{
		UserName:  req.UserName,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   models.Address{State: req.State, City: req.City, Street: req.Street, Zipcode: req.Zipcode},
	})
	if errors.Is(err, models.ErrConflict) {
		middleware.RespondWithError(c, http.StatusConflict, "Username already exists!")
		return
	}
	if err != nil {
		respondWithDomainError(c, err, "", "Failed to create user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User has been created."})
}

// Login sets the session cookie and returns the public customer fields.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	err := c.ShouldBindJSON(&req)
	if respondWithBindError(c, req, err) {
		return
	}

	customer, token, err := h.auth.Login(c.Request.Context(), cqrs.LoginCommand{
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		respondWithDomainError(c, err, "User not found", "Failed to log in")
		return
	}

	h.cookies.SetCookie(c, token)
	c.JSON(http.StatusOK, customer)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "User has been logged out."})
}
