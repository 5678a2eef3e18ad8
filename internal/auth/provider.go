// Package auth adapts the hosted auth provider: it resolves the user behind
// the session cookies, rotates credentials and keeps a local profile row
// for every authenticated user.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnauthenticated means the provider rejected the credential.
	ErrUnauthenticated    = errors.New("session is not valid")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("a user with this email already exists")
	ErrRateLimited        = errors.New("too many requests to the auth provider")
	// ErrProvider covers transport failures and unexpected answers.
	ErrProvider = errors.New("auth provider unavailable")
)

// User is the identity the provider vouches for.
type User struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Metadata map[string]interface{} `json:"user_metadata"`
}

// Claim returns a non-empty string metadata value.
func (u *User) Claim(key string) (string, bool) {
	v, ok := u.Metadata[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Session is a credential pair issued by the provider.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *User
}

// Provider is the capability set the application needs from the hosted
// auth service.
type Provider interface {
	ResolveUser(ctx context.Context, accessToken string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error

	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignUp returns a nil session when the provider requires the email
	// to be confirmed first.
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*Session, error)
	RecoverPassword(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
}
