package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/utils"
)

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) ListTaskComments(ctx *gin.Context) {
	taskID, ok := pathID(ctx, utils.GetTaskID)
	if !ok {
		return
	}

	comments, err := h.Services.Comments.FindByTaskID(ctx.Request.Context(), taskID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, comments)
}

func (h *Handler) CreateComment(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	taskID, ok := pathID(ctx, utils.GetTaskID)
	if !ok {
		return
	}

	var body CreateCommentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	comment, err := h.Services.Comments.Create(ctx.Request.Context(), taskID, userID, body.Content)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, comment)
}

func (h *Handler) DeleteComment(ctx *gin.Context) {
	commentID, ok := pathID(ctx, utils.GetCommentID)
	if !ok {
		return
	}

	if err := h.Services.Comments.Delete(ctx.Request.Context(), commentID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
