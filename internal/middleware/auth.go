package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/utils"
)

const (
	RoleAdmin = "admin"
	RoleGuest = "guest"

	claimsKey = "auth_claims"
)

var ErrMissingToken = errors.New("missing bearer token")

// Claims are issued by the booking platform's auth service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token. Used by tests and the dev setup script.
func GenerateToken(secret, issuer, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(tokenString, secret, issuer string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no user id", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// Auth requires a valid bearer token and stores its claims on the context.
func Auth(secret, issuer string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Authentication required", err.Error()))
			return
		}

		claims, err := ParseToken(raw, secret, issuer)
		if err != nil {
			log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("Rejected token from %s: %v", c.ClientIP(), err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Invalid token", err.Error()))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func RequireRole(role string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil || claims.Role != role {
			user := ""
			if claims != nil {
				user = claims.UserID
			}
			log.LogSecurity("FORBIDDEN", fmt.Sprintf("User %q denied %s %s", user, c.Request.Method, c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse("Insufficient permissions", ""))
			return
		}
		c.Next()
	}
}

func CurrentClaims(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// CurrentUserID is empty on unauthenticated routes.
func CurrentUserID(c *gin.Context) string {
	if claims := CurrentClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
