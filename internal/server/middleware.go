package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const usernameContextKey = "username"

func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response().Header().Set("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		return next(c)
	}
}

// requireAuth validates the bearer token and stores its subject (the
// username) in the request context. Tokens are issued by the auth service;
// this service only verifies them.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		}

		username, err := s.parseSubject(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}

		c.Set(usernameContextKey, username)
		return next(c)
	}
}

// bearerToken reads the token from the Authorization header, falling back
// to the access_token query parameter for websocket handshakes (browsers
// cannot set headers on WebSocket connects).
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.QueryParam("access_token")
}

func (s *Server) parseSubject(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}

// requireInternalKey guards service-to-service endpoints with a shared
// secret header.
func (s *Server) requireInternalKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get("X-Internal-Api-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.config.InternalAPIKey)) != 1 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		}
		return next(c)
	}
}
