package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Error codes written by the auth middleware.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

const (
	// UserIDKey is the context key for the authenticated subject.
	UserIDKey = "user_id"
	// UserRoleKey is the context key for the authenticated role.
	UserRoleKey = "user_role"
)

// Roles accepted by RequireRole.
const (
	RoleManager = "manager"
	RoleTenant  = "tenant"
)

// Authenticator verifies HS256 bearer tokens. The subject claim is the
// user's cognito id; the role is read from a configurable claim.
type Authenticator struct {
	secret    []byte
	roleClaim string
}

// NewAuthenticator creates an Authenticator for the given signing secret.
func NewAuthenticator(secret, roleClaim string) *Authenticator {
	return &Authenticator{secret: []byte(secret), roleClaim: roleClaim}
}

// RequireRole rejects requests without a valid token (401) or whose role is
// not one of roles (403). On success the subject and role are stored in the
// context and attached to the request logger.
func (a *Authenticator) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "Missing bearer token")
			return
		}

		subject, role, err := a.verify(raw)
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Warn("Rejected bearer token", map[string]interface{}{
					"error": err.Error(),
					"path":  c.Request.URL.Path,
				})
			}
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid token")
			return
		}

		if !allowed(role, roles) {
			abortWithError(c, http.StatusForbidden, CodeForbidden, "Access denied")
			return
		}

		c.Set(UserIDKey, subject)
		c.Set(UserRoleKey, role)
		if log := GetLogger(c); log != nil {
			c.Set(loggerKey, log.With(map[string]interface{}{"user_id": subject}))
		}

		c.Next()
	}
}

func (a *Authenticator) verify(raw string) (subject, role string, err error) {
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", err
	}

	subject, _ = claims["sub"].(string)
	if subject == "" {
		return "", "", fmt.Errorf("token has no subject")
	}
	role, _ = claims[a.roleClaim].(string)
	return subject, strings.ToLower(role), nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func allowed(role string, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// GetUserID returns the authenticated subject, or "" outside RequireRole.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// abortWithError writes the standard error envelope and stops the chain.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
