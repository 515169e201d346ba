package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/auth"
	"github.com/plank-dev/plank/internal/models"
	"github.com/plank-dev/plank/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[string]*models.User

func (s stubUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := s[id]; ok {
		return user, nil
	}
	return nil, apperrors.NotFound("User not found")
}

func newAuthEngine(t *testing.T) (*gin.Engine, *auth.Issuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := auth.NewIssuer("secret", time.Hour)
	require.NoError(t, err)

	users := stubUsers{"u1": {BaseModel: models.BaseModel{ID: "u1"}, Name: "Alice", Email: "alice@example.com"}}

	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/private", AuthMiddleware(issuer, users), func(c *gin.Context) {
		user, _ := c.Get(types.ContextUserKey)
		c.JSON(http.StatusOK, user)
	})

	return r, issuer
}

func TestAuthMiddleware(t *testing.T) {
	r, issuer := newAuthEngine(t)

	valid, err := issuer.Generate("u1", "alice@example.com")
	require.NoError(t, err)

	ghost, err := issuer.Generate("ghost", "ghost@example.com")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"unknown user", "Bearer " + ghost, "", http.StatusUnauthorized},
		{"bearer", "Bearer " + valid, "", http.StatusOK},
		{"cookie", "", valid, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tc.cookie})
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), "alice@example.com")
			}
		})
	}
}

func TestTraceMiddlewareKeepsCallerID(t *testing.T) {
	r, _ := newAuthEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(TraceHeader, "abc-123")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(TraceHeader))
}
