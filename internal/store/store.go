// Package store is the data-access layer. Every client applies the same
// ownership rules a row-level security policy would: tenants see their own
// rows, anonymous callers see public rows, and only the privileged client
// bypasses the rules.
package store

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound covers both missing rows and rows hidden by policy.
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	// ErrForbidden is returned for writes the caller's role may never make.
	ErrForbidden = errors.New("operation not permitted")

	ErrPrivilegedKey = errors.New("privileged client requires the service role key")
)

type Store struct {
	db             *gorm.DB
	serviceRoleKey string
}

func New(db *gorm.DB, serviceRoleKey string) *Store {
	return &Store{db: db, serviceRoleKey: serviceRoleKey}
}

// Client is a data-access handle bound to one role.
type Client struct {
	db         *gorm.DB
	userID     string
	privileged bool
}

// Scoped returns a client acting as userID. An empty id yields the
// anonymous client.
func (s *Store) Scoped(userID string) *Client {
	return &Client{db: s.db, userID: userID}
}

func (s *Store) Anonymous() *Client {
	return &Client{db: s.db}
}

// Privileged returns a policy-bypassing client. key must equal the
// configured service role key; it carries no user session.
func (s *Store) Privileged(key string) (*Client, error) {
	if key == "" || s.serviceRoleKey == "" ||
		subtle.ConstantTimeCompare([]byte(key), []byte(s.serviceRoleKey)) != 1 {
		return nil, ErrPrivilegedKey
	}
	return &Client{db: s.db, privileged: true}, nil
}

func (c *Client) UserID() string { return c.userID }

func (c *Client) IsAnonymous() bool { return !c.privileged && c.userID == "" }

func (c *Client) IsPrivileged() bool { return c.privileged }

func (c *Client) conn(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

// translate maps gorm errors onto the package sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ownedProjectIDs selects the ids of the projects the client's user owns.
func (c *Client) ownedProjectIDs(ctx context.Context) *gorm.DB {
	return c.conn(ctx).Table("projects").Select("id").Where("user_id = ?", c.userID)
}

func (c *Client) canWrite() bool {
	return c.privileged || c.userID != ""
}
