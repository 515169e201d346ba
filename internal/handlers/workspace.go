package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/services"
	"github.com/plank-dev/plank/internal/types"
	"github.com/plank-dev/plank/internal/utils"
)

type CreateWorkspaceRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	ImageURL    string                 `json:"image_url"`
	Settings    map[string]interface{} `json:"settings"`
}

type UpdateWorkspaceRequest struct {
	Name        *string                `json:"name" binding:"omitempty,min=1"`
	Description *string                `json:"description"`
	ImageURL    *string                `json:"image_url"`
	Settings    map[string]interface{} `json:"settings"`
}

type InviteWorkspaceMemberRequest struct {
	Email   string              `json:"email" binding:"required,email"`
	Role    types.WorkspaceRole `json:"role" binding:"omitempty,oneof=ADMIN MEMBER"`
	Message string              `json:"message"`
}

// ListWorkspaces returns the workspaces the caller owns or belongs to.
func (h *Handler) ListWorkspaces(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	workspaces, err := h.Services.Workspaces.FindByUserID(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, workspaces)
}

func (h *Handler) CreateWorkspace(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var body CreateWorkspaceRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	workspace, err := h.Services.Workspaces.Create(ctx.Request.Context(), userID, services.CreateWorkspaceInput{
		Name:        body.Name,
		Description: body.Description,
		ImageURL:    body.ImageURL,
		Settings:    body.Settings,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, workspace)
}

func (h *Handler) GetWorkspace(ctx *gin.Context) {
	workspaceID, ok := pathID(ctx, utils.GetWorkspaceID)
	if !ok {
		return
	}

	workspace, err := h.Services.Workspaces.FindByID(ctx.Request.Context(), workspaceID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, workspace)
}

func (h *Handler) UpdateWorkspace(ctx *gin.Context) {
	workspaceID, ok := pathID(ctx, utils.GetWorkspaceID)
	if !ok {
		return
	}

	var body UpdateWorkspaceRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	workspace, err := h.Services.Workspaces.Update(ctx.Request.Context(), workspaceID, services.UpdateWorkspaceInput{
		Name:        body.Name,
		Description: body.Description,
		ImageURL:    body.ImageURL,
		Settings:    body.Settings,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, workspace)
}

func (h *Handler) DeleteWorkspace(ctx *gin.Context) {
	workspaceID, ok := pathID(ctx, utils.GetWorkspaceID)
	if !ok {
		return
	}

	if err := h.Services.Workspaces.Delete(ctx.Request.Context(), workspaceID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *Handler) ListWorkspaceMembers(ctx *gin.Context) {
	workspaceID, ok := pathID(ctx, utils.GetWorkspaceID)
	if !ok {
		return
	}

	members, err := h.Services.Workspaces.ListMembers(ctx.Request.Context(), workspaceID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, members)
}

// InviteWorkspaceMember adds a member by email. Any authenticated user may
// invite; the caller's role in the workspace is not checked.
func (h *Handler) InviteWorkspaceMember(ctx *gin.Context) {
	workspaceID, ok := pathID(ctx, utils.GetWorkspaceID)
	if !ok {
		return
	}

	var body InviteWorkspaceMemberRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	member, err := h.Services.Workspaces.AddMember(ctx.Request.Context(), workspaceID, services.InviteMemberInput{
		Email:   body.Email,
		Role:    body.Role,
		Message: body.Message,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, member)
}
