package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/safebank/bank-api/shared/models"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "accessToken"
	CustomerIDKey = "custId"
)

type Claims struct {
	CustomerID int64 `json:"cust_id"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies session tokens. A zero TTL issues tokens
// without an expiry claim, which then live until logout.
type Sessions struct {
	secret       []byte
	ttl          time.Duration
	secureCookie bool
}

func NewSessions(secret string, ttl time.Duration, secureCookie bool) (*Sessions, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("session ttl must not be negative, got %s", ttl)
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, secureCookie: secureCookie}, nil
}

func (s *Sessions) Issue(customerID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify returns the customer id carried by token or models.ErrInvalidToken.
func (s *Sessions) Verify(token string) (int64, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.CustomerID <= 0 {
		return 0, models.ErrInvalidToken
	}
	return claims.CustomerID, nil
}

func (s *Sessions) SetCookie(c *gin.Context, token string) {
	s.writeCookie(c, token, int(s.ttl/time.Second))
}

func (s *Sessions) ClearCookie(c *gin.Context) {
	s.writeCookie(c, "", -1)
}

func (s *Sessions) writeCookie(c *gin.Context, value string, maxAge int) {
	if s.secureCookie {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(SessionCookie, value, maxAge, "/", "", s.secureCookie, true)
}

// AuthMiddleware rejects requests without a session cookie (401) or with a
// cookie that does not verify (403).
func (s *Sessions) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Not logged in!",
			})
			return
		}

		customerID, err := s.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Token is not valid!",
			})
			return
		}

		c.Set(CustomerIDKey, customerID)
		c.Next()
	}
}

func GetCustomerID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(CustomerIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
