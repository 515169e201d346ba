package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/services"
	"github.com/plank-dev/plank/internal/storage"
	"github.com/plank-dev/plank/internal/utils"
)

type UpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Image *string `json:"image" binding:"omitempty,url"`
}

func (h *Handler) ListUsers(ctx *gin.Context) {
	users, err := h.Services.Users.FindAll(ctx.Request.Context())

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(ctx *gin.Context) {
	userID, ok := pathID(ctx, utils.GetUserID)
	if !ok {
		return
	}

	user, err := h.Services.Users.FindByID(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(ctx *gin.Context) {
	userID, ok := ownAccountID(ctx)
	if !ok {
		return
	}

	var body UpdateUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	user, err := h.Services.Users.Update(ctx.Request.Context(), userID, services.UpdateUserInput{
		Name:  body.Name,
		Image: body.Image,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// DeleteUser lets a user remove their own account. Only the user row goes;
// content they authored stays.
func (h *Handler) DeleteUser(ctx *gin.Context) {
	userID, ok := ownAccountID(ctx)
	if !ok {
		return
	}

	if err := h.Services.Users.Delete(ctx.Request.Context(), userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// UploadAvatar stores the multipart "avatar" file and points the current
// user's image at it.
func (h *Handler) UploadAvatar(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if h.Avatars == nil {
		ctx.JSON(http.StatusNotImplemented, gin.H{"error": "Avatar storage is not configured"})
		return
	}

	fileHeader, err := ctx.FormFile("avatar")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Avatar file is required"})
		return
	}

	if fileHeader.Size > storage.MaxAvatarSize {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Avatar must be at most 5MB"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")

	if !storage.AllowedImageType(contentType) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Avatar must be a PNG, JPEG, GIF or WebP image"})
		return
	}

	src, err := fileHeader.Open()

	if err != nil {
		respondError(ctx, err)
		return
	}
	defer src.Close()

	url, err := h.Avatars.PutAvatar(ctx.Request.Context(), userID, fileHeader.Filename, contentType, src, fileHeader.Size)

	if err != nil {
		respondError(ctx, err)
		return
	}

	user, err := h.Services.Users.SetAvatar(ctx.Request.Context(), userID, url)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}
