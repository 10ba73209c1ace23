package handlers

import (
	"errors"
	"net/http"

	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/session"
	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/types"
)

// Auth gates privileged routes on the session cookie. Both gates
// re-read the user from the database on every request instead of
// trusting the role snapshotted into the session, so role changes
// take effect without re-login.
type Auth struct {
	sessions    session.Store
	cookies     session.Cookies
	userService *services.UserService
}

func NewAuth(sessions session.Store, cookies session.Cookies, userService *services.UserService) *Auth {
	return &Auth{
		sessions:    sessions,
		cookies:     cookies,
		userService: userService,
	}
}

// resolve validates the session cookie and loads the current user row.
// A session whose user row has vanished is destroyed.
func (a *Auth) resolve(w http.ResponseWriter, r *http.Request) (sessionOutcome, bool) {
	sessionID := a.cookies.Read(r)
	if sessionID == "" {
		return sessionOutcome{}, false
	}
	data, ok := a.sessions.Get(sessionID)
	if !ok {
		return sessionOutcome{}, false
	}

	user, err := a.userService.GetByID(r.Context(), data.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.sessions.Destroy(sessionID)
			a.cookies.Clear(w)
			return sessionOutcome{}, false
		}
		return sessionOutcome{err: err}, false
	}
	return sessionOutcome{sessionID: sessionID, user: user}, true
}

type sessionOutcome struct {
	sessionID string
	user      types.User
	err       error
}

// RequireAuth rejects requests without a valid session whose user
// still exists.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome, ok := a.resolve(w, r)
		if !ok {
			if outcome.err != nil {
				writeError(w, http.StatusInternalServerError, "Server error")
				return
			}
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), outcome.user)))
	})
}

// RequireAdmin additionally checks the freshly-read role.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome, ok := a.resolve(w, r)
		if !ok {
			if outcome.err != nil {
				writeError(w, http.StatusInternalServerError, "Server error")
				return
			}
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if !outcome.user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Access denied. Admin privileges required.")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), outcome.user)))
	})
}
