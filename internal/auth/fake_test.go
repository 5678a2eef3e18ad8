package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// fakeProvider accepts the tokens in users and rotates refresh tokens found
// in sessions.
type fakeProvider struct {
	users    map[string]*User
	sessions map[string]*Session
	failWith error

	resolveCalls int
	refreshCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{users: map[string]*User{}, sessions: map[string]*Session{}}
}

func (f *fakeProvider) ResolveUser(_ context.Context, token string) (*User, error) {
	f.resolveCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, ErrUnauthenticated
}

func (f *fakeProvider) Refresh(_ context.Context, token string) (*Session, error) {
	f.refreshCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	if s, ok := f.sessions[token]; ok {
		return s, nil
	}
	return nil, ErrUnauthenticated
}

func (f *fakeProvider) SignOut(context.Context, string) error { return nil }

func (f *fakeProvider) SignIn(context.Context, string, string) (*Session, error) {
	return nil, ErrInvalidCredentials
}

func (f *fakeProvider) SignUp(context.Context, string, string, map[string]interface{}) (*Session, error) {
	return nil, nil
}

func (f *fakeProvider) RecoverPassword(context.Context, string, string) error { return nil }

func (f *fakeProvider) UpdatePassword(context.Context, string, string) error { return nil }

// tokenExpiringIn builds an unsigned-looking JWT whose exp is d from now.
func tokenExpiringIn(d time.Duration) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(d).Unix(),
	})
	s, _ := tok.SignedString([]byte("not-the-provider-secret"))
	return s
}
