package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/auth"
	"github.com/plank-dev/plank/internal/models"
	"github.com/plank-dev/plank/internal/types"
)

const TokenCookie = "token"

type AuthenticatedUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

// UserLookup resolves the subject of a verified token.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware accepts a Bearer token or, failing that, the token cookie.
func AuthMiddleware(issuer *auth.Issuer, users UserLookup) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := extractToken(ctx)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
			return
		}

		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := issuer.Verify(tokenString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.FindByID(ctx.Request.Context(), claims.Subject)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Image: user.Image,
		})
		ctx.Next()
	}
}

// extractToken reports ok=false when no credential was sent at all and an
// empty token when the Authorization header is malformed.
func extractToken(ctx *gin.Context) (string, bool) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", true
		}

		return strings.TrimSpace(parts[1]), true
	}

	if cookie, err := ctx.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, true
	}

	return "", false
}
