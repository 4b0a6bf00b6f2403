// pkg/api/session.go
package api

import (
	"net/http"

	"github.com/David-Botos/datawizard/pkg/session"
)

const (
	sessionCookie = "datawizard_session"
	sessionHeader = "X-Session-ID"
)

// sessionID reads the client's session id from the cookie, then the header
func sessionID(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(sessionHeader)
}

// withSession runs fn on the caller's session under its lock and hands the
// session id back to the client. Unknown or expired ids get a new session.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session.State) error) (string, error) {
	id, err := s.sessions.With(sessionID(r), func(state *session.State) error {
		s.metrics.StartSession(state.ID)
		return fn(state)
	})

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(sessionHeader, id)
	return id, err
}
