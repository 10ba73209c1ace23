// Package session provides the server-side session store backing the
// authentication cookie. The role snapshotted at login is advisory
// only; privileged paths re-read the user's current role from the
// database on every request.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Data is the payload held for one session.
type Data struct {
	UserID   int
	Username string
	Email    string
	Role     string
}

// Store keeps sessions keyed by an opaque id.
type Store interface {
	// Create registers a new session and returns its id.
	Create(data Data) string
	// Get returns the session payload, or false if the id is unknown
	// or expired.
	Get(id string) (Data, bool)
	// Destroy removes the session. Destroying an unknown id is a no-op.
	Destroy(id string)
}

type entry struct {
	data      Data
	expiresAt time.Time
}

// MemoryStore is an in-process Store with per-session expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
	}
}

func (s *MemoryStore) Create(data Data) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = entry{data: data, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return id
}

func (s *MemoryStore) Get(id string) (Data, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Data{}, false
	}
	if time.Now().After(e.expiresAt) {
		s.Destroy(id)
		return Data{}, false
	}
	return e.data, true
}

func (s *MemoryStore) Destroy(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Cookies binds a Store to the HTTP cookie carrying the session id.
type Cookies struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Set writes the session cookie. HTTP-only and SameSite Lax so the
// React frontend can send it cross-origin with credentials.
func (c Cookies) Set(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.MaxAge.Seconds()),
	})
}

// Clear expires the session cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Read returns the session id from the request cookie, or "" when absent.
func (c Cookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
