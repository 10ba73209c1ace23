package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/session"
)

type adminEnv struct {
	router   chi.Router
	repo     *fakeUserRepo
	sessions session.Store
}

// newAdminEnv mounts the admin routes the way the server does: Check
// outside the admin gate, everything else behind it.
func newAdminEnv() adminEnv {
	repo := newFakeUserRepo()
	userService := services.NewUserService(repo, nil)
	sessions := session.NewMemoryStore(time.Hour)
	cookies := session.Cookies{Name: "voicescript_sid", MaxAge: time.Hour}
	auth := NewAuth(sessions, cookies, userService)
	handler := NewAdminHandler(services.NewAdminService(nil, nil), userService, sessions, cookies)

	router := chi.NewRouter()
	router.Route("/api/admin", func(r chi.Router) {
		AdminRouter(r, handler, auth.RequireAdmin)
	})
	return adminEnv{router: router, repo: repo, sessions: sessions}
}

func TestAdminCheckUnauthenticated(t *testing.T) {
	t.Parallel()

	env := newAdminEnv()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/check", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	// An anonymous caller still gets the role payload, not the
	// generic auth error.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isAdmin"])
	assert.Contains(t, body, "role")
	assert.Nil(t, body["role"])
	assert.NotContains(t, body, "message")
}

func TestAdminCheckRegularUser(t *testing.T) {
	t.Parallel()

	env := newAdminEnv()
	user := env.repo.seedUser(t, "alice", "a@x.com", "secret123", "user")
	sessionID := env.sessions.Create(session.Data{UserID: user.ID, Role: user.Role})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/check", nil)
	req.AddCookie(&http.Cookie{Name: "voicescript_sid", Value: sessionID})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isAdmin"])
	assert.Equal(t, "user", body["role"])
}

func TestAdminCheckAdmin(t *testing.T) {
	t.Parallel()

	env := newAdminEnv()
	user := env.repo.seedUser(t, "root", "root@x.com", "secret123", "admin")
	sessionID := env.sessions.Create(session.Data{UserID: user.ID, Role: user.Role})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/check", nil)
	req.AddCookie(&http.Cookie{Name: "voicescript_sid", Value: sessionID})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isAdmin"])
	assert.Equal(t, "admin", body["role"])
}

func TestAdminCheckVanishedUser(t *testing.T) {
	t.Parallel()

	env := newAdminEnv()
	sessionID := env.sessions.Create(session.Data{UserID: 404})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/check", nil)
	req.AddCookie(&http.Cookie{Name: "voicescript_sid", Value: sessionID})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["isAdmin"])
	_, ok := env.sessions.Get(sessionID)
	assert.False(t, ok)
}

func TestAdminRoutesStayGated(t *testing.T) {
	t.Parallel()

	env := newAdminEnv()
	user := env.repo.seedUser(t, "alice", "a@x.com", "secret123", "user")
	sessionID := env.sessions.Create(session.Data{UserID: user.ID, Role: user.Role})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "voicescript_sid", Value: sessionID})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied. Admin privileges required.", decodeBody(t, rec)["message"])
}
