package middleware

import (
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/kidpech/asso_api/internal/domain/user"
	"github.com/kidpech/asso_api/internal/infrastructure/auth"
	"github.com/kidpech/asso_api/pkg/response"
)

// Context keys set once a bearer token is accepted.
const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxRole     = "user_role"
)

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(token string) (*auth.Claims, error)
}

// AuthMiddleware rejects requests without a valid access token.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		claims, err := tokens.ParseAccessToken(raw)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		bindClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth binds the caller when a valid token is present and otherwise
// lets the request through anonymously, so per-user rate limits can apply
// before routing.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c.GetHeader("Authorization")); raw != "" {
			if claims, err := tokens.ParseAccessToken(raw); err == nil {
				bindClaims(c, claims)
			}
		}
		c.Next()
	}
}

// AuthenticatedOnly rejects requests OptionalAuth could not identify.
func AuthenticatedOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole lets through only callers holding role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != role {
			response.Forbidden(c, role+" only")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnly is RequireRole for administrators.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(user.RoleAdmin)
}

func bindClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUsername, claims.Username)
	c.Set(ctxRole, claims.Role)
	if hub := sentry.GetHubFromContext(c.Request.Context()); hub != nil {
		hub.Scope().SetUser(sentry.User{ID: claims.UserID.String(), Username: claims.Username})
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
