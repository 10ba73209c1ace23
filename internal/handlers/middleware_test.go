package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/session"
)

func newAuthGate(repo *fakeUserRepo) (*Auth, session.Store) {
	sessions := session.NewMemoryStore(time.Hour)
	cookies := session.Cookies{Name: "voicescript_sid", MaxAge: time.Hour}
	return NewAuth(sessions, cookies, services.NewUserService(repo, nil)), sessions
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		user, ok := currentUser(r.Context())
		require.True(t, ok)
		require.NotZero(t, user.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthNoCookie(t *testing.T) {
	t.Parallel()

	gate, _ := newAuthGate(newFakeUserRepo())
	called := false

	req := httptest.NewRequest(http.MethodGet, "/api/notes/1", nil)
	rec := httptest.NewRecorder()
	gate.RequireAuth(okHandler(t, &called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuthValidSession(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	user := repo.seedUser(t, "alice", "a@x.com", "secret123", "user")
	gate, sessions := newAuthGate(repo)
	sessionID := sessions.Create(session.Data{UserID: user.ID})
	called := false

	req := httptest.NewRequest(http.MethodGet, "/api/notes/1", nil)
	req.AddCookie(&http.Cookie{Name: "voicescript_sid", Value: sessionID})
	rec := httptest.NewRecorder()
	gate.RequireAuth(okHandler(t, &called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireAuthVanishedUser(t *testing.T) {
	t.Parallel()

	gate, sessions := newAuthGate(newFakeUserRepo())
	sessionID := sessions.Create(session.Data{UserID: 42})
	called := false

	req := httptest.NewRequest(http.MethodGet, "/api/notes/1", nil)
	req.AddCookie(&http.Cookie{Name: "voicescript_sid", Value: sessionID})
	rec := httptest.NewRecorder()
	gate.RequireAuth(okHandler(t, &called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	// The session referencing a deleted user is gone afterwards.
	_, ok := sessions.Get(sessionID)
	assert.False(t, ok)
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	admin := repo.seedUser(t, "root", "root@x.com", "secret123", "admin")
	gate, sessions := newAuthGate(repo)
	sessionID := sessions.Create(session.Data{UserID: admin.ID})
	called := false

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "voicescript_sid", Value: sessionID})
	rec := httptest.NewRecorder()
	gate.RequireAdmin(okHandler(t, &called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireAdminNonAdmin(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	user := repo.seedUser(t, "bob", "b@x.com", "secret123", "user")
	gate, sessions := newAuthGate(repo)
	// The snapshot says admin; the database row decides.
	sessionID := sessions.Create(session.Data{UserID: user.ID, Role: "admin"})
	called := false

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "voicescript_sid", Value: sessionID})
	rec := httptest.NewRecorder()
	gate.RequireAdmin(okHandler(t, &called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied. Admin privileges required.", decodeBody(t, rec)["message"])
	assert.False(t, called)
}
