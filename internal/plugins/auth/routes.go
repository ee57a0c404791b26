package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/casa-helloworld/internal/middleware"
)

// RegisterRoutes mounts the public login and logout endpoints. Login
// attempts are limited to 10 per client IP per minute.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.POST("/logout", h.Logout)
}
