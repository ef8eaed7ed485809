package user

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/catalog/internal/aggregation"
	"github.com/mediahub/catalog/internal/auth"
	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/middleware"
	"github.com/mediahub/catalog/internal/store/memstore"
)

const secret = "user-secret"

func TestProfileEndpoints(t *testing.T) {
	st := memstore.New()
	alice := catalog.Owner{
		ID:           catalog.NewID(),
		Username:     "alice",
		FullName:     "Alice Liddell",
		AvatarURL:    "http://cdn.test/alice.png",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}
	st.AddOwner(alice)

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth(secret))
		NewHandler(aggregation.NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))).Register(r)
	})

	get := func(path, sub string) (int, map[string]any) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		token, err := auth.IssueToken(secret, sub, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	code, body := get("/users/me", alice.ID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{
		"fullName":  "Alice Liddell",
		"username":  "alice",
		"avatarUrl": "http://cdn.test/alice.png",
	}, body["data"])

	code, _ = get("/users/"+alice.ID, catalog.NewID())
	assert.Equal(t, http.StatusOK, code)

	code, _ = get("/users/me", catalog.NewID())
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get("/users/nope", alice.ID)
	assert.Equal(t, http.StatusBadRequest, code)
}
