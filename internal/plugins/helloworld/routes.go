package helloworld

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/casa-helloworld/internal/middleware"
)

// RegisterRoutes mounts the plugin page on the given group, which must
// already require an authenticated session.
//
// Sending a code is limited to 5 per IP per 10 minutes; verification to 10
// per minute.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("", h.Page)
	g.POST("/org-name", h.LoadOrgName)
	g.POST("/otp", h.SendOTP, middleware.RateLimit(5, 10*time.Minute))
	g.POST("/otp/verify", h.VerifyOTP, middleware.RateLimit(10, time.Minute))
}
