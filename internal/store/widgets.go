package store

import (
	"context"

	"github.com/koe-app/koe/internal/models"
	"gorm.io/gorm"
)

// widgetScope limits widgets to projects the caller may read. When write is
// set, anonymous callers match nothing.
func (c *Client) widgetScope(ctx context.Context, write bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case c.privileged:
			return db
		case c.userID != "":
			return db.Where("widgets.project_id IN (?)", c.ownedProjectIDs(ctx))
		case write:
			return db.Where("1 = 0")
		}
		return db
	}
}

func (c *Client) ListWidgets(ctx context.Context, projectID string) ([]models.Widget, error) {
	var widgets []models.Widget
	err := c.conn(ctx).Scopes(c.widgetScope(ctx, false)).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&widgets).Error
	if err != nil {
		return nil, translate("list widgets", err)
	}
	return widgets, nil
}

func (c *Client) GetWidget(ctx context.Context, id string) (*models.Widget, error) {
	var w models.Widget
	if err := c.conn(ctx).Scopes(c.widgetScope(ctx, false)).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, translate("get widget", err)
	}
	return &w, nil
}

// CreateWidget inserts w. The target project must be writable by the caller.
func (c *Client) CreateWidget(ctx context.Context, w *models.Widget) error {
	if !c.canWrite() {
		return translate("create widget", ErrForbidden)
	}
	var n int64
	err := c.conn(ctx).Model(&models.Project{}).Scopes(c.projectWrite).
		Where("id = ?", w.ProjectID).Count(&n).Error
	if err != nil {
		return translate("create widget", err)
	}
	if n == 0 {
		return translate("create widget", ErrNotFound)
	}
	return translate("create widget", c.conn(ctx).Create(w).Error)
}

func (c *Client) UpdateWidget(ctx context.Context, id string, updates map[string]interface{}) (*models.Widget, error) {
	var w models.Widget
	if err := c.conn(ctx).Scopes(c.widgetScope(ctx, true)).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, translate("update widget", err)
	}
	if len(updates) > 0 {
		if err := c.conn(ctx).Model(&w).Updates(updates).Error; err != nil {
			return nil, translate("update widget", err)
		}
	}
	return c.GetWidget(ctx, id)
}

func (c *Client) DeleteWidget(ctx context.Context, id string) error {
	res := c.conn(ctx).Scopes(c.widgetScope(ctx, true)).Where("id = ?", id).Delete(&models.Widget{})
	if res.Error != nil {
		return translate("delete widget", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("delete widget", ErrNotFound)
	}
	return nil
}
