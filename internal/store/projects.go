package store

import (
	"context"
	"time"

	"github.com/koe-app/koe/internal/models"
	"gorm.io/gorm"
)

// projectRead limits project reads: tenants see their own projects,
// anonymous callers see every project (public walls and forms).
func (c *Client) projectRead(db *gorm.DB) *gorm.DB {
	if c.privileged || c.userID == "" {
		return db
	}
	return db.Where("projects.user_id = ?", c.userID)
}

// projectWrite limits project writes to the owner.
func (c *Client) projectWrite(db *gorm.DB) *gorm.DB {
	if c.privileged {
		return db
	}
	return db.Where("projects.user_id = ?", c.userID)
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	if c.IsAnonymous() {
		return nil, translate("list projects", ErrForbidden)
	}
	var projects []models.Project
	err := c.conn(ctx).Scopes(c.projectRead).Order("created_at DESC").Find(&projects).Error
	if err != nil {
		return nil, translate("list projects", err)
	}
	return projects, nil
}

// CountProjects counts the projects owned by the client's user.
func (c *Client) CountProjects(ctx context.Context) (int64, error) {
	if c.IsAnonymous() {
		return 0, translate("count projects", ErrForbidden)
	}
	var n int64
	if err := c.conn(ctx).Model(&models.Project{}).Scopes(c.projectRead).Count(&n).Error; err != nil {
		return 0, translate("count projects", err)
	}
	return n, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := c.conn(ctx).Scopes(c.projectRead).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate("get project", err)
	}
	return &p, nil
}

func (c *Client) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var p models.Project
	if err := c.conn(ctx).Scopes(c.projectRead).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, translate("get project by slug", err)
	}
	return &p, nil
}

// SlugTaken reports whether any project other than exceptID uses slug.
// Slugs are global, so this check is not policy-scoped.
func (c *Client) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	q := c.conn(ctx).Model(&models.Project{}).Where("slug = ?", slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, translate("check slug", err)
	}
	return n > 0, nil
}

// CreateProject inserts p owned by the client's user.
func (c *Client) CreateProject(ctx context.Context, p *models.Project) error {
	if !c.canWrite() {
		return translate("create project", ErrForbidden)
	}
	if !c.privileged {
		p.UserID = c.userID
	}
	return translate("create project", c.conn(ctx).Create(p).Error)
}

// UpdateProject applies column updates to an owned project and returns the
// stored result.
func (c *Client) UpdateProject(ctx context.Context, id string, updates map[string]interface{}) (*models.Project, error) {
	if !c.canWrite() {
		return nil, translate("update project", ErrForbidden)
	}
	var p models.Project
	if err := c.conn(ctx).Scopes(c.projectWrite).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate("update project", err)
	}
	if len(updates) > 0 {
		if err := c.conn(ctx).Model(&p).Updates(updates).Error; err != nil {
			return nil, translate("update project", err)
		}
	}
	return c.GetProject(ctx, id)
}

// DeleteProject removes an owned project with its widgets and testimonials.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if !c.canWrite() {
		return translate("delete project", ErrForbidden)
	}
	return c.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Scopes(c.projectWrite).Where("id = ?", id).Delete(&models.Project{})
		if res.Error != nil {
			return translate("delete project", res.Error)
		}
		if res.RowsAffected == 0 {
			return translate("delete project", ErrNotFound)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Widget{}).Error; err != nil {
			return translate("delete project widgets", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Testimonial{}).Error; err != nil {
			return translate("delete project testimonials", err)
		}
		return nil
	})
}

// PublicProject is the sitemap view of a project.
type PublicProject struct {
	Slug      string
	UpdatedAt time.Time
}

// ListPublicProjects returns the slug and modification time of every
// project, newest first, up to limit.
func (c *Client) ListPublicProjects(ctx context.Context, limit int) ([]PublicProject, error) {
	var rows []PublicProject
	err := c.conn(ctx).Model(&models.Project{}).Scopes(c.projectRead).
		Select("slug", "updated_at").
		Order("updated_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, translate("list public projects", err)
	}
	return rows, nil
}
