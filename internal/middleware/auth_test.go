package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cad-auth/internal/models"
	"cad-auth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(tokens services.TokenService) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(tokens), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.UID)
	})
	return r
}

func TestAuthMiddleware_Accepts(t *testing.T) {
	tokens := services.NewTokenService("s3cr3t", time.Hour, 0)
	token, _, err := tokens.Issue(models.Identity{ID: "111"}, models.NoDepartment())
	require.NoError(t, err)

	for _, scheme := range []string{"Bearer ", "bearer ", "BEARER "} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", scheme+token)
		w := httptest.NewRecorder()
		newProtectedRouter(tokens).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, scheme)
		assert.Equal(t, "111", w.Body.String())
	}
}

func TestAuthMiddleware_UniformRejection(t *testing.T) {
	secret := []byte("s3cr3t")
	tokens := services.NewTokenService(string(secret), time.Hour, 0)

	now := time.Now()
	valid, _, err := services.IssueToken(models.Identity{ID: "111"}, models.NoDepartment(), secret, now, time.Hour)
	require.NoError(t, err)
	expired, _, err := services.IssueToken(models.Identity{ID: "111"}, models.NoDepartment(), secret, now.Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	wrongKey, _, err := services.IssueToken(models.Identity{ID: "111"}, models.NoDepartment(), []byte("other"), now, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"uid":"111","departments":["PBP"],"exp":9999999999}`)) + "." + parts[2]

	cases := map[string]string{
		"missing header": "",
		"no token":       "Bearer ",
		"malformed":      "Bearer abc.def",
		"expired":        "Bearer " + expired,
		"wrong key":      "Bearer " + wrongKey,
		"tampered":       "Bearer " + tampered,
	}

	var bodies []string
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			newProtectedRouter(tokens).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			bodies = append(bodies, w.Body.String())
		})
	}

	// Причина відмови не розкривається клієнту
	for _, b := range bodies {
		assert.JSONEq(t, `{"error":"unauthorized"}`, b)
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer  abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
	_, ok = bearerToken("Token abc")
	assert.False(t, ok)
}
