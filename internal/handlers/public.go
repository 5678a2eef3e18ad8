package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/pkg/response"
)

// PublicHandler serves the unauthenticated collection form, wall and
// widget endpoints.
type PublicHandler struct {
	public       *services.PublicService
	testimonials *services.TestimonialService
	contact      *services.ContactService
}

func NewPublicHandler(public *services.PublicService, testimonials *services.TestimonialService, contact *services.ContactService) *PublicHandler {
	return &PublicHandler{public: public, testimonials: testimonials, contact: contact}
}

// GET /api/public/projects/:slug
func (h *PublicHandler) Project(c *gin.Context) {
	project, err := h.public.Project(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, project)
}

// Submit stores a testimonial from the collection form
// POST /api/public/projects/:slug/testimonials
func (h *PublicHandler) Submit(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	res, err := h.testimonials.Submit(c.Request.Context(), c.Param("slug"), raw)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, res)
}

// GET /api/public/walls/:slug
func (h *PublicHandler) Wall(c *gin.Context) {
	wall, err := h.public.Wall(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=60")
	response.Success(c, wall)
}

// Widget returns the embed payload. Embeds run on third-party pages, so
// the response is cacheable and readable from any origin.
// GET /api/public/widgets/:id
func (h *PublicHandler) Widget(c *gin.Context) {
	payload, err := h.public.Widget(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=60")
	response.Success(c, payload)
}

// Contact stores a message from the contact page
// POST /api/contact
func (h *PublicHandler) Contact(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	if _, err := h.contact.Submit(c.Request.Context(), raw); err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{"message": "Thanks, we will get back to you soon."})
}
