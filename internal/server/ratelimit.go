package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// limiterIdleExpiry is how long an IP's bucket survives without traffic
// before the store forgets it.
const limiterIdleExpiry = 5 * time.Minute

// newRateLimiter returns per-IP token bucket middleware for the websocket
// handshake endpoint. A dashboard stuck in a reconnect loop gets 429s
// instead of a fresh upgrade (and hub registration) per attempt. Normal
// clients reconnecting after a deploy stay well under the burst.
func newRateLimiter(handshakesPerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(handshakesPerSecond),
			Burst:     burst,
			ExpiresIn: limiterIdleExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
		},
	})
}
