package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{apperrors.NotFound("Workspace not found"), http.StatusNotFound, `{"error":"Workspace not found"}`},
		{fmt.Errorf("wrapped: %w", apperrors.Conflict("Email already exists")), http.StatusConflict, `{"error":"Email already exists"}`},
		{apperrors.Validation("Name is required"), http.StatusBadRequest, `{"error":"Name is required"}`},
		{apperrors.Unauthorized("Invalid email or password"), http.StatusUnauthorized, `{"error":"Invalid email or password"}`},
		{errors.New("connection reset"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(ctx, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}
