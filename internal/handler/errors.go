package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safebank/bank-api/shared/middleware"
	"github.com/safebank/bank-api/shared/models"
)

// retryAfterSeconds is sent with 503 responses for timed out transactions.
const retryAfterSeconds = 1

// respondWithDomainError maps a service error onto the HTTP status table.
// notFound and fallback are the messages for 404 and 500 respectively.
func respondWithDomainError(c *gin.Context, err error, notFound, fallback string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		middleware.RespondWithError(c, http.StatusBadRequest, "Wrong username or password")
	case errors.Is(err, models.ErrUnauthenticated):
		middleware.RespondWithError(c, http.StatusUnauthorized, "Not logged in!")
	case errors.Is(err, models.ErrInvalidToken):
		middleware.RespondWithError(c, http.StatusForbidden, "Token is not valid!")
	case errors.Is(err, models.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, notFound)
	case errors.Is(err, models.ErrConflict):
		middleware.RespondWithError(c, http.StatusConflict, "Record already exists")
	case errors.Is(err, models.ErrTimeout):
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		middleware.RespondWithError(c, http.StatusServiceUnavailable, "The request timed out, please retry")
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		middleware.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}

// respondWithBindError reports a malformed body, or the validator failures
// when the body parsed but did not validate.
func respondWithBindError(c *gin.Context, obj any, err error) bool {
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return true
	}
	if validationErrors := middleware.ValidateRequest(obj); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return true
	}
	return false
}

func queryInt64(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithValidationError(c, []middleware.ValidationError{{
			Field:   key,
			Message: "Value must be a positive integer",
			Type:    "numeric",
		}})
		return 0, false
	}
	return id, true
}
