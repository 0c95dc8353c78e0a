package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Sessions issues and reads the session cookie. The cookie carries only an
// opaque identifier; all state lives in the session store.
type Sessions struct {
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessions creates the middleware. secure marks the cookie Secure and
// should be set outside development.
func NewSessions(cookieName string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{cookieName: cookieName, ttl: ttl, secure: secure}
}

// Attach puts the session id in the request context, issuing a new one when
// the cookie is missing or not a valid id. The cookie is refreshed on every
// request so its lifetime tracks the store TTL.
func (s *Sessions) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(s.cookieName); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		http.SetCookie(w, &http.Cookie{
			Name:     s.cookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(s.ttl.Seconds()),
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, r.WithContext(SetSessionID(r.Context(), id)))
	})
}
