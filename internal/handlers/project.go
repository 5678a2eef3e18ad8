package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/middleware"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/internal/storage"
	"github.com/koe-app/koe/internal/validation"
	"github.com/koe-app/koe/pkg/response"
)

type ProjectHandler struct {
	projects     *services.ProjectService
	widgets      *services.WidgetService
	testimonials *services.TestimonialService
}

func NewProjectHandler(projects *services.ProjectService, widgets *services.WidgetService, testimonials *services.TestimonialService) *ProjectHandler {
	return &ProjectHandler{projects: projects, widgets: widgets, testimonials: testimonials}
}

// List returns the user's projects with testimonial counts
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	items, err := h.projects.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, items)
}

// GetByID returns a project
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, project)
}

// Create creates a new project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	project, err := h.projects.Create(c.Request.Context(), middleware.GetUserID(c), raw)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, project)
}

// Update applies a partial update
// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	project, err := h.projects.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), raw)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, project)
}

// Delete removes a project with its widgets and testimonials
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Message(c, "project deleted")
}

// UploadLogo accepts a multipart "logo" file
// POST /api/projects/:id/logo
func (h *ProjectHandler) UploadLogo(c *gin.Context) {
	header, err := c.FormFile("logo")
	if err != nil {
		fail(c, validation.FieldError("logo", "is required"))
		return
	}
	if header.Size > storage.MaxLogoSize {
		fail(c, validation.FieldError("logo", "must be 2 MB or smaller"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "could not read upload")
		return
	}
	defer file.Close()

	project, err := h.projects.UploadLogo(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), file, header.Size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, project)
}

// Testimonials lists a project's testimonials, optionally by status
// GET /api/projects/:id/testimonials?status=pending
func (h *ProjectHandler) Testimonials(c *gin.Context) {
	items, err := h.testimonials.ListByProject(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, items)
}

// Widgets lists a project's widgets
// GET /api/projects/:id/widgets
func (h *ProjectHandler) Widgets(c *gin.Context) {
	items, err := h.widgets.ListByProject(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, items)
}
