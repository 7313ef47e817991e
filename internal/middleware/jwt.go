package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/auth"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextClaims is the key for the validated *auth.Claims in gin context.
	ContextClaims = auth.ContextClaims
)

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWT returns a middleware that validates the bearer token and sets user claims in context.
// revoked may be nil when no revocation list is configured.
func JWT(jwtService *auth.JWTService, revoked RevocationChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		if revoked != nil {
			gone, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Error("token revocation check failed", zap.Error(err))
				response.ServiceUnavailable(c, "authentication temporarily unavailable")
				c.Abort()
				return
			}
			if gone {
				response.Unauthorized(c, "token has been revoked")
				c.Abort()
				return
			}
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWT sets user claims when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalJWT(jwtService *auth.JWTService, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			c.Next()
			return
		}
		if revoked != nil {
			if gone, err := revoked.IsRevoked(c.Request.Context(), claims.ID); err != nil || gone {
				c.Next()
				return
			}
		}
		setClaims(c, claims)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, if any.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return models.Actor{}, false
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

// MustActor returns the authenticated actor. It panics when called on a route
// without the JWT middleware.
func MustActor(c *gin.Context) models.Actor {
	return c.MustGet(ContextClaims).(*auth.Claims).Actor()
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextClaims, claims)
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserRole, claims.Role)
}
