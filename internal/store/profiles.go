package store

import (
	"context"

	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/plan"
	"gorm.io/gorm/clause"
)

// GetProfile returns the profile with id. Tenants can only read their own.
func (c *Client) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	if !c.privileged && (c.userID == "" || c.userID != id) {
		return nil, translate("get profile", ErrNotFound)
	}
	var p models.Profile
	if err := c.conn(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate("get profile", err)
	}
	return &p, nil
}

// InsertProfile creates p unless a profile with the same id exists. It
// reports whether a row was written.
func (c *Client) InsertProfile(ctx context.Context, p *models.Profile) (bool, error) {
	if !c.privileged && (c.userID == "" || c.userID != p.ID) {
		return false, translate("insert profile", ErrForbidden)
	}
	if p.Plan == "" {
		p.Plan = string(plan.Free)
	}
	res := c.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if res.Error != nil {
		return false, translate("insert profile", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetPlanByUser changes a user's tier. Privileged only.
func (c *Client) SetPlanByUser(ctx context.Context, userID string, tier plan.Tier, customerID string) error {
	if !c.privileged {
		return translate("set plan", ErrForbidden)
	}
	updates := map[string]interface{}{"plan": string(tier)}
	if customerID != "" {
		updates["stripe_customer_id"] = customerID
	}
	res := c.conn(ctx).Model(&models.Profile{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return translate("set plan", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("set plan", ErrNotFound)
	}
	return nil
}

// SetPlanByCustomer changes the tier of the user linked to a billing
// customer. Privileged only.
func (c *Client) SetPlanByCustomer(ctx context.Context, customerID string, tier plan.Tier) error {
	if !c.privileged {
		return translate("set plan", ErrForbidden)
	}
	if customerID == "" {
		return translate("set plan", ErrNotFound)
	}
	res := c.conn(ctx).Model(&models.Profile{}).Where("stripe_customer_id = ?", customerID).
		Update("plan", string(tier))
	if res.Error != nil {
		return translate("set plan", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("set plan", ErrNotFound)
	}
	return nil
}
