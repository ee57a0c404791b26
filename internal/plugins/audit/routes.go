package audit

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts GET /audit on the admin group, which already
// requires an admin session.
func RegisterRoutes(admin *echo.Group, h *Handler) {
	admin.GET("/audit", h.Activity)
}
