package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/middleware"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/pkg/response"
)

type TestimonialHandler struct {
	testimonials *services.TestimonialService
}

func NewTestimonialHandler(testimonials *services.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{testimonials: testimonials}
}

// Moderate approves, rejects or resets a testimonial
// PATCH /api/testimonials/:id
func (h *TestimonialHandler) Moderate(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	t, err := h.testimonials.Moderate(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), raw)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, t)
}

// DELETE /api/testimonials/:id
func (h *TestimonialHandler) Delete(c *gin.Context) {
	if err := h.testimonials.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Message(c, "testimonial deleted")
}
