package ui

import (
	"io/fs"
	"net/http"

	"carprice/internal/metrics"
	"carprice/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	sessionKey    = "session"
	sessionHeader = "X-Session-ID"
)

// setupMiddleware configures logging, recovery, sessions and static files.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.Use(s.sessionMiddleware())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		s.log.Error("Error creating static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// sessionMiddleware attaches the visitor's filter session. The id comes from
// the session cookie or, for API clients, the X-Session-ID header.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(s.cookie.CookieName)
		if err != nil || id == "" {
			id = c.GetHeader(sessionHeader)
		}
		sess, created := s.sessions.GetOrCreate(id)
		if created {
			metrics.ActiveSessions.Set(float64(s.sessions.Len()))
		}
		if created || id != sess.ID.String() {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(s.cookie.CookieName, sess.ID.String(), s.cookie.MaxAgeSecs, "/", "", false, true)
		}
		c.Header(sessionHeader, sess.ID.String())
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
