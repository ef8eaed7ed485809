package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/catalog/internal/auth"
)

const secret = "test-secret"

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(p.ID))
	})
}

func TestRequireAuth(t *testing.T) {
	token, err := auth.IssueToken(secret, "65f1c0ffee0000000000abcd", time.Hour)
	require.NoError(t, err)

	h := RequireAuth(secret)(principalEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "65f1c0ffee0000000000abcd", rec.Body.String())
}

func TestRequireAuthRejects(t *testing.T) {
	h := RequireAuth(secret)(principalEcho())
	for name, header := range map[string]string{
		"missing":        "",
		"wrong type":     "Basic abc",
		"bad token":      "Bearer abc.def.ghi",
		"no credentials": "Bearer",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"statusCode":401`)
		})
	}
}

func TestPrincipalFromEmptyContext(t *testing.T) {
	_, ok := PrincipalFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := chiMiddleware.RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/videos/x", nil))

	out := buf.String()
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/api/v1/videos/x"`)
	assert.Contains(t, out, `"request_id"`)
}
