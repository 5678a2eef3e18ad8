package store

import (
	"context"

	"github.com/koe-app/koe/internal/models"
)

// CreateContactMessage is open to every role. Reading messages back is not.
func (c *Client) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	return translate("create contact message", c.conn(ctx).Create(m).Error)
}
