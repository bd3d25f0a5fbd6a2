package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	token string
	id    uuid.UUID
}

func (s stubValidator) ValidateAccess(token string) (uuid.UUID, error) {
	if token != s.token {
		return uuid.Nil, errors.New("bad token")
	}
	return s.id, nil
}

func newAuthRouter(v TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
		id, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	id := uuid.New()
	r := newAuthRouter(stubValidator{token: "good", id: id})

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{"bearer", "Bearer good", "", http.StatusOK},
		{"cookie", "", "good", http.StatusOK},
		{"header wins over cookie", "Bearer bad", "good", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", "", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, id.String(), w.Body.String())
			}
		})
	}
}
