package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/middleware"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/pkg/response"
)

type WidgetHandler struct {
	widgets *services.WidgetService
}

func NewWidgetHandler(widgets *services.WidgetService) *WidgetHandler {
	return &WidgetHandler{widgets: widgets}
}

// Create creates a widget for an owned project
// POST /api/widgets
func (h *WidgetHandler) Create(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	widget, err := h.widgets.Create(c.Request.Context(), middleware.GetUserID(c), raw)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, widget)
}

// GET /api/widgets/:id
func (h *WidgetHandler) GetByID(c *gin.Context) {
	widget, err := h.widgets.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, widget)
}

// Update changes the widget type or parts of its config
// PATCH /api/widgets/:id
func (h *WidgetHandler) Update(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	widget, err := h.widgets.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), raw)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, widget)
}

// DELETE /api/widgets/:id
func (h *WidgetHandler) Delete(c *gin.Context) {
	if err := h.widgets.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Message(c, "widget deleted")
}
