package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"blog-api/internal/authz"
	"blog-api/internal/repository"
	"blog-api/pkg/logger"
	"blog-api/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const identityKey = "identity"

type AuthMiddleware struct {
	users  repository.UserRepository
	perms  *authz.PermissionCache
	secret string
}

func NewAuthMiddleware(users repository.UserRepository, perms *authz.PermissionCache, secret string) *AuthMiddleware {
	return &AuthMiddleware{users: users, perms: perms, secret: secret}
}

// RequireAuth authenticates the bearer token and attaches the caller's
// Identity (id, roles, permission closure) to the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.resolve(c)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Unauthenticated.", nil)
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// OptionalAuth attaches an Identity when a valid token is present but lets
// anonymous requests through. Used by public listings where gated fields
// simply stay hidden.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, err := m.resolve(c); err == nil {
			c.Set(identityKey, identity)
		}
		c.Next()
	}
}

func (m *AuthMiddleware) resolve(c *gin.Context) (*authz.Identity, error) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim")
	}

	user, err := m.users.FindByID(c.Request.Context(), userID, "Roles")
	if err != nil {
		return nil, err
	}

	closure, err := m.perms.ClosureFor(c.Request.Context(), user.ID)
	if err != nil {
		// Role checks still work without the closure; log and continue.
		logger.Log.Warn("permission closure lookup failed", zap.Error(err))
		closure = map[string]struct{}{}
	}

	return &authz.Identity{
		UserID:      user.ID,
		Roles:       user.RoleNames(),
		Permissions: closure,
	}, nil
}

// CurrentIdentity returns the authenticated caller's Identity, or nil for
// anonymous requests on OptionalAuth routes.
func CurrentIdentity(c *gin.Context) *authz.Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, ok := v.(*authz.Identity)
	if !ok {
		return nil
	}
	return identity
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
