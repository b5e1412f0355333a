package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/domain"
)

const callerKey = "caller"

// CallerClaims are the claims issued by the account service: id, role and email.
type CallerClaims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func failAuth(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"Status": "Fail", "Message": message})
}

// AuthMiddleware verifies an HMAC-signed bearer token and stores the caller on the context.
func AuthMiddleware(secret string, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Middleware: Authorization header is missing")
			failAuth(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			log.Warn("Middleware: Invalid Authorization header format")
			failAuth(c, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		caller, err := ParseCaller(parts[1], secret)
		if err != nil {
			log.Warnf("Middleware: Rejected token: %v", err)
			failAuth(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		log.Debugf("Middleware: Authenticated caller %s (%s)", caller.UserID, caller.Role)
		c.Set(callerKey, caller)
		c.Next()
	}
}

func ParseCaller(rawToken, secret string) (*domain.Caller, error) {
	if secret == "" {
		return nil, errors.New("token secret is not configured")
	}
	claims := &CallerClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no id claim")
	}

	role := domain.RoleCustomer
	if domain.Role(claims.Role) == domain.RoleAdmin {
		role = domain.RoleAdmin
	}
	return &domain.Caller{UserID: claims.UserID, Email: claims.Email, Role: role}, nil
}

// IssueToken signs a caller token. Used by tests and local tooling.
func IssueToken(caller *domain.Caller, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := CallerClaims{
		UserID: caller.UserID,
		Role:   string(caller.Role),
		Email:  caller.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// CallerFrom returns nil when the request was not authenticated.
func CallerFrom(c *gin.Context) *domain.Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*domain.Caller)
	return caller
}

func RequireAdmin(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if !caller.IsAdmin() {
			log.Warnf("Middleware: Caller %q denied admin route %s", caller.ID(), c.FullPath())
			failAuth(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})
		if caller := CallerFrom(c); caller != nil {
			entry = entry.WithField("user_id", caller.UserID)
		}

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case statusCode >= 500:
			entry.Error("Request completed with server error")
		case statusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
