package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/services"
	"github.com/plank-dev/plank/internal/types"
	"github.com/plank-dev/plank/internal/utils"
)

type CreateTaskRequest struct {
	ProjectID   string           `json:"project_id" binding:"required,uuid"`
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Status      types.TaskStatus `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Type        types.TaskType   `json:"type" binding:"omitempty,oneof=TASK BUG FEATURE IMPROVEMENT OTHER"`
	Priority    types.Priority   `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssigneeID  string           `json:"assignee_id"`
	DueDate     *time.Time       `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string           `json:"title" binding:"omitempty,min=1"`
	Description *string           `json:"description"`
	Status      *types.TaskStatus `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Type        *types.TaskType   `json:"type" binding:"omitempty,oneof=TASK BUG FEATURE IMPROVEMENT OTHER"`
	Priority    *types.Priority   `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssigneeID  *string           `json:"assignee_id"`
	DueDate     *time.Time        `json:"due_date"`
}

// ListTasks returns the tasks in the caller's projects plus those assigned
// to them.
func (h *Handler) ListTasks(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	tasks, err := h.Services.Tasks.FindVisible(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *Handler) ListProjectTasks(ctx *gin.Context) {
	projectID, ok := pathID(ctx, utils.GetProjectID)
	if !ok {
		return
	}

	tasks, err := h.Services.Tasks.FindByProjectID(ctx.Request.Context(), projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var body CreateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	task, err := h.Services.Tasks.Create(ctx.Request.Context(), userID, services.CreateTaskInput{
		ProjectID:   body.ProjectID,
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Type:        body.Type,
		Priority:    body.Priority,
		AssigneeID:  body.AssigneeID,
		DueDate:     body.DueDate,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(ctx *gin.Context) {
	taskID, ok := pathID(ctx, utils.GetTaskID)
	if !ok {
		return
	}

	task, err := h.Services.Tasks.FindByID(ctx.Request.Context(), taskID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	taskID, ok := pathID(ctx, utils.GetTaskID)
	if !ok {
		return
	}

	var body UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	task, err := h.Services.Tasks.Update(ctx.Request.Context(), taskID, services.UpdateTaskInput{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Type:        body.Type,
		Priority:    body.Priority,
		AssigneeID:  body.AssigneeID,
		DueDate:     body.DueDate,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	taskID, ok := pathID(ctx, utils.GetTaskID)
	if !ok {
		return
	}

	if err := h.Services.Tasks.Delete(ctx.Request.Context(), taskID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
