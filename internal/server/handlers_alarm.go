package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // cross-origin dashboards connect here
	},
}

// handleAlarmSocket binds an inbound push connection to a user identity.
// The identity sits in the path for compatibility with existing clients but
// must match the authenticated token's subject, so nobody can register under
// someone else's name.
func (s *Server) handleAlarmSocket(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username is required"})
	}

	if authenticated, _ := c.Get(usernameContextKey).(string); authenticated != username {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "token subject does not match username"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake error response.
		slog.Warn("WebSocket upgrade failed", "username", username, "error", err)
		return nil
	}

	if err := s.hub.Register(username, conn); err != nil {
		slog.Warn("Failed to register connection", "username", username, "error", err)
		return nil
	}

	// Read pump: blocks until the client goes away, then unregisters
	// exactly once. The hub owns all writes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(username, conn)

	return nil
}
