package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/middleware"
	"github.com/plank-dev/plank/internal/models"
	"github.com/plank-dev/plank/internal/utils"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *Handler) Register(ctx *gin.Context) {
	var body RegisterRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	user, err := h.Services.Users.Register(ctx.Request.Context(), body.Name, body.Email, body.Password)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.issueSession(ctx, http.StatusCreated, user)
}

// Login signs in by email. Unknown emails get a placeholder account.
func (h *Handler) Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	user, err := h.Services.Users.Login(ctx.Request.Context(), body.Email, body.Password)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.issueSession(ctx, http.StatusOK, user)
}

func (h *Handler) issueSession(ctx *gin.Context, status int, user *models.User) {
	token, err := h.Issuer.Generate(user.ID, user.Email)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, token, int(h.Issuer.TTL().Seconds()))

	ctx.JSON(status, AuthResponse{Token: token, User: *user})
}

func (h *Handler) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) Me(ctx *gin.Context) {
	currentUser, err := utils.CurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": currentUser})
}

func (h *Handler) Logout(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
