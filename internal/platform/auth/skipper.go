package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists routes reachable without a session.
var publicPaths = map[string]bool{
	"/health":            true,
	"/health/db":         true,
	"/api/auth/register": true,
	"/api/auth/login":    true,
	"/api/auth/logout":   true,
}

// AuthSkipper returns true for requests that bypass authentication: the
// public API routes and the static UI bundle outside /api.
func AuthSkipper(c echo.Context) bool {
	if publicPaths[c.Path()] {
		return true
	}
	return !strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// IsPublicPath reports whether path is a public route.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
