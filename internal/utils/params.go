package utils

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plank-dev/plank/internal/middleware"
	"github.com/plank-dev/plank/internal/types"
)

var ErrNotAuthenticated = errors.New("User not authenticated")

// CurrentUser returns the user AuthMiddleware attached to the request.
func CurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	if value, exists := ctx.Get(types.ContextUserKey); exists {
		if user, ok := value.(middleware.AuthenticatedUser); ok && user.ID != "" {
			return user, nil
		}
	}

	return middleware.AuthenticatedUser{}, ErrNotAuthenticated
}

// GetIDParam reads the named path parameter and checks it is a UUID. label
// names the entity in error messages, e.g. "Workspace".
func GetIDParam(ctx *gin.Context, name, label string) (string, error) {
	value := ctx.Param(name)

	if value == "" {
		return "", fmt.Errorf("%s ID not found", label)
	}

	if err := uuid.Validate(value); err != nil {
		return "", fmt.Errorf("Invalid %s ID", label)
	}

	return value, nil
}

func GetWorkspaceID(ctx *gin.Context) (string, error) {
	return GetIDParam(ctx, "workspace_id", "Workspace")
}

func GetProjectID(ctx *gin.Context) (string, error) {
	return GetIDParam(ctx, "project_id", "Project")
}

func GetTaskID(ctx *gin.Context) (string, error) {
	return GetIDParam(ctx, "task_id", "Task")
}

func GetCommentID(ctx *gin.Context) (string, error) {
	return GetIDParam(ctx, "comment_id", "Comment")
}

func GetUserID(ctx *gin.Context) (string, error) {
	return GetIDParam(ctx, "user_id", "User")
}
