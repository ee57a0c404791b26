package audit

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/casa-helloworld/internal/middleware"
)

// Handler serves the admin activity feed.
type Handler struct {
	service AuditService
}

// NewHandler returns a Handler over service.
func NewHandler(service AuditService) *Handler {
	return &Handler{service: service}
}

type activityQuery struct {
	Page int `query:"page"`
}

// activityJSON is the JSON shape of one feed page.
type activityJSON struct {
	Entries []AuditEntry `json:"entries"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// Activity lists recorded actions newest first (GET /admin/audit?page=N).
// API clients that only accept JSON get the page as JSON.
func (h *Handler) Activity(c echo.Context) error {
	var q activityQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		q.Page = 1
	}

	page, err := h.service.Recent(c.Request().Context(), q.Page)
	if err != nil {
		return err
	}

	if acceptsOnlyJSON(c) {
		return c.JSON(http.StatusOK, activityJSON{
			Entries: page.Entries,
			Total:   page.Total,
			Page:    page.Page,
			PerPage: page.PerPage,
		})
	}
	return middleware.Render(c, http.StatusOK, ActivityPage(*page))
}

func acceptsOnlyJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
