package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/auth"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/services"
	"github.com/plank-dev/plank/internal/storage"
	"github.com/plank-dev/plank/internal/types"
	"github.com/plank-dev/plank/internal/utils"
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	Services *services.Services
	Issuer   *auth.Issuer
	Hub      *events.Hub

	// Avatars is nil when object storage is not configured.
	Avatars storage.AvatarStore

	// Ping checks the database for the health endpoint.
	Ping func(ctx context.Context) error

	CookieDomain   string
	AllowedOrigins []string
}

// respondError maps service failures to status codes. Unexpected errors are
// logged and hidden behind a generic message.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	message, ok := apperrors.Message(err)

	if status == http.StatusInternalServerError || !ok {
		slog.ErrorContext(ctx.Request.Context(), "request failed",
			"path", ctx.FullPath(), "trace_id", ctx.GetString(types.ContextTraceKey), "error", err)
		_ = ctx.Error(err)
		message = "Internal server error"
	}

	ctx.JSON(status, gin.H{"error": message})
}

func badRequest(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
}

// currentUserID writes a 401 and returns false when the request carries no
// authenticated user.
func currentUserID(ctx *gin.Context) (string, bool) {
	user, err := utils.CurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return "", false
	}

	return user.ID, true
}

// pathID writes a 400 and returns false when the parameter is not a valid id.
func pathID(ctx *gin.Context, get func(*gin.Context) (string, error)) (string, bool) {
	id, err := get(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}

	return id, true
}

// ownAccountID returns the :user_id path parameter when it names the caller.
// Accounts can only be changed by their owner.
func ownAccountID(ctx *gin.Context) (string, bool) {
	userID, ok := pathID(ctx, utils.GetUserID)
	if !ok {
		return "", false
	}

	currentID, ok := currentUserID(ctx)
	if !ok {
		return "", false
	}

	if userID != currentID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You can only modify your own account"})
		return "", false
	}

	return userID, true
}
