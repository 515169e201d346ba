package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/services"
	"github.com/plank-dev/plank/internal/types"
	"github.com/plank-dev/plank/internal/utils"
)

type CreateProjectRequest struct {
	WorkspaceID string              `json:"workspace_id" binding:"required,uuid"`
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Priority    types.Priority      `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status      types.ProjectStatus `json:"status" binding:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
	TeamLead    string              `json:"team_lead"`
	TeamMembers []string            `json:"team_members"`
	Progress    *int                `json:"progress" binding:"omitempty,min=0,max=100"`
}

type UpdateProjectRequest struct {
	Name        *string              `json:"name" binding:"omitempty,min=1"`
	Description *string              `json:"description"`
	Priority    *types.Priority      `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status      *types.ProjectStatus `json:"status" binding:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	TeamLead    *string              `json:"team_lead"`
	Progress    *int                 `json:"progress" binding:"omitempty,min=0,max=100"`
}

type AddProjectMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ListProjects returns the projects the caller leads or belongs to.
func (h *Handler) ListProjects(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	projects, err := h.Services.Projects.FindByUserID(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

func (h *Handler) ListWorkspaceProjects(ctx *gin.Context) {
	workspaceID, ok := pathID(ctx, utils.GetWorkspaceID)
	if !ok {
		return
	}

	projects, err := h.Services.Projects.FindByWorkspaceID(ctx.Request.Context(), workspaceID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var body CreateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	project, err := h.Services.Projects.Create(ctx.Request.Context(), userID, services.CreateProjectInput{
		WorkspaceID: body.WorkspaceID,
		Name:        body.Name,
		Description: body.Description,
		Priority:    body.Priority,
		Status:      body.Status,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		TeamLead:    body.TeamLead,
		TeamMembers: body.TeamMembers,
		Progress:    body.Progress,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

func (h *Handler) GetProject(ctx *gin.Context) {
	projectID, ok := pathID(ctx, utils.GetProjectID)
	if !ok {
		return
	}

	project, err := h.Services.Projects.FindByID(ctx.Request.Context(), projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	projectID, ok := pathID(ctx, utils.GetProjectID)
	if !ok {
		return
	}

	var body UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	project, err := h.Services.Projects.Update(ctx.Request.Context(), projectID, services.UpdateProjectInput{
		Name:        body.Name,
		Description: body.Description,
		Priority:    body.Priority,
		Status:      body.Status,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		TeamLead:    body.TeamLead,
		Progress:    body.Progress,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	projectID, ok := pathID(ctx, utils.GetProjectID)
	if !ok {
		return
	}

	if err := h.Services.Projects.Delete(ctx.Request.Context(), projectID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *Handler) ListProjectMembers(ctx *gin.Context) {
	projectID, ok := pathID(ctx, utils.GetProjectID)
	if !ok {
		return
	}

	members, err := h.Services.Projects.ListMembers(ctx.Request.Context(), projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, members)
}

// AddProjectMember enrolls an already registered user by email.
func (h *Handler) AddProjectMember(ctx *gin.Context) {
	projectID, ok := pathID(ctx, utils.GetProjectID)
	if !ok {
		return
	}

	var body AddProjectMemberRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	member, err := h.Services.Projects.AddMember(ctx.Request.Context(), projectID, body.Email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, member)
}
