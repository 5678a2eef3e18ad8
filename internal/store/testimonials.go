package store

import (
	"context"

	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/plan"
	"gorm.io/gorm"
)

// testimonialScope: owners see every testimonial of their projects,
// anonymous callers see approved ones only. Writes need ownership.
func (c *Client) testimonialScope(ctx context.Context, write bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case c.privileged:
			return db
		case c.userID != "":
			return db.Where("testimonials.project_id IN (?)", c.ownedProjectIDs(ctx))
		case write:
			return db.Where("1 = 0")
		}
		return db.Where("testimonials.status = ?", models.StatusApproved)
	}
}

// ListTestimonials returns a project's testimonials, newest first. An empty
// status lists every status the caller may see.
func (c *Client) ListTestimonials(ctx context.Context, projectID string, status models.TestimonialStatus) ([]models.Testimonial, error) {
	q := c.conn(ctx).Scopes(c.testimonialScope(ctx, false)).Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Testimonial
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, translate("list testimonials", err)
	}
	return out, nil
}

// ListApproved returns up to limit approved testimonials of a project.
func (c *Client) ListApproved(ctx context.Context, projectID string, limit int) ([]models.Testimonial, error) {
	var out []models.Testimonial
	err := c.conn(ctx).Scopes(c.testimonialScope(ctx, false)).
		Where("project_id = ? AND status = ?", projectID, models.StatusApproved).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, translate("list approved testimonials", err)
	}
	return out, nil
}

// TestimonialCounts returns visible testimonial counts keyed by project id.
// Projects without testimonials are absent from the map.
func (c *Client) TestimonialCounts(ctx context.Context, projectIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ProjectID string
		N         int64
	}
	err := c.conn(ctx).Model(&models.Testimonial{}).Scopes(c.testimonialScope(ctx, false)).
		Select("project_id, COUNT(*) AS n").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("count testimonials", err)
	}
	for _, r := range rows {
		counts[r.ProjectID] = r.N
	}
	return counts, nil
}

func (c *Client) GetTestimonial(ctx context.Context, id string) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := c.conn(ctx).Scopes(c.testimonialScope(ctx, false)).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translate("get testimonial", err)
	}
	return &t, nil
}

// CreateTestimonial inserts t into an existing project. Non-privileged
// callers can only create pending testimonials.
func (c *Client) CreateTestimonial(ctx context.Context, t *models.Testimonial) error {
	if !c.privileged {
		t.Status = models.StatusPending
	}
	var n int64
	if err := c.conn(ctx).Model(&models.Project{}).Where("id = ?", t.ProjectID).Count(&n).Error; err != nil {
		return translate("create testimonial", err)
	}
	if n == 0 {
		return translate("create testimonial", ErrNotFound)
	}
	return translate("create testimonial", c.conn(ctx).Create(t).Error)
}

func (c *Client) UpdateTestimonialStatus(ctx context.Context, id string, status models.TestimonialStatus) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := c.conn(ctx).Scopes(c.testimonialScope(ctx, true)).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translate("update testimonial", err)
	}
	if err := c.conn(ctx).Model(&t).Update("status", status).Error; err != nil {
		return nil, translate("update testimonial", err)
	}
	t.Status = status
	return &t, nil
}

func (c *Client) DeleteTestimonial(ctx context.Context, id string) error {
	res := c.conn(ctx).Scopes(c.testimonialScope(ctx, true)).Where("id = ?", id).Delete(&models.Testimonial{})
	if res.Error != nil {
		return translate("delete testimonial", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete testimonial", ErrNotFound)
	}
	return nil
}

// ProjectQuota returns the owner's plan tier and the project's total
// testimonial count. It is open to every role, like a security-definer
// function, and exposes nothing beyond those two values.
func (c *Client) ProjectQuota(ctx context.Context, projectID string) (plan.Tier, int64, error) {
	var row struct {
		Plan *string
	}
	err := c.conn(ctx).Table("projects").
		Select("profiles.plan AS plan").
		Joins("LEFT JOIN profiles ON profiles.id = projects.user_id").
		Where("projects.id = ?", projectID).
		Take(&row).Error
	if err != nil {
		return "", 0, translate("project quota", err)
	}

	var n int64
	if err := c.conn(ctx).Model(&models.Testimonial{}).Where("project_id = ?", projectID).Count(&n).Error; err != nil {
		return "", 0, translate("project quota", err)
	}
	tier := plan.Free
	if row.Plan != nil {
		tier = plan.ParseTier(*row.Plan)
	}
	return tier, n, nil
}
