package httpserver

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const contextKeyViewerID = "viewerID"

// viewerMiddleware gives every visitor a stable anonymous viewer ID stored in
// the session cookie. Vote state is keyed by this ID.
func (s *Server) viewerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			// Undecodable cookie (e.g. rotated secret): start a fresh session.
			slog.DebugContext(c.Request().Context(), "Discarding invalid session", "error", err)
		}

		viewerID, _ := session.Values[sessionKeyViewerID].(string)
		if _, parseErr := uuid.Parse(viewerID); parseErr != nil {
			viewerID = uuid.NewString()
			session.Values[sessionKeyViewerID] = viewerID
			if err := session.Save(c.Request(), c.Response()); err != nil {
				slog.WarnContext(c.Request().Context(), "Failed to save session", "error", err)
			}
		}

		c.Set(contextKeyViewerID, viewerID)
		return next(c)
	}
}

func viewerID(c echo.Context) string {
	id, _ := c.Get(contextKeyViewerID).(string)
	return id
}
