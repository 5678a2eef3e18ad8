package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/koe-app/koe/pkg/logger"
)

const (
	AccessCookie  = "sb-access-token"
	RefreshCookie = "sb-refresh-token"

	cookieMaxAge = 30 * 24 * 60 * 60
	refreshSkew  = 60 * time.Second
)

// SessionManager turns the session cookies of a request into a provider
// verified user, rotating the credentials when needed.
type SessionManager struct {
	provider Provider
	secure   bool
	now      func() time.Time
}

func NewSessionManager(provider Provider, secureCookies bool) *SessionManager {
	return &SessionManager{provider: provider, secure: secureCookies, now: time.Now}
}

func (m *SessionManager) Provider() Provider { return m.provider }

// Resolve returns the authenticated user of the request, or nil. Rotated
// credentials are written back as cookies; a session the provider rejects
// has its cookies cleared.
func (m *SessionManager) Resolve(c *gin.Context) *User {
	access, _ := c.Cookie(AccessCookie)
	refresh, _ := c.Cookie(RefreshCookie)
	if access == "" && refresh == "" {
		return nil
	}

	ctx := c.Request.Context()
	refreshed := false

	tryRefresh := func() bool {
		refreshed = true
		sess, err := m.provider.Refresh(ctx, refresh)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				refresh = ""
			} else {
				logger.Warn().Err(err).Msg("session refresh failed")
			}
			return false
		}
		m.Establish(c, sess)
		access, refresh = sess.AccessToken, sess.RefreshToken
		return true
	}

	if refresh != "" && (access == "" || m.expiresSoon(access)) {
		tryRefresh()
	}
	if access == "" {
		if refresh == "" {
			m.Clear(c)
		}
		return nil
	}

	user, err := m.provider.ResolveUser(ctx, access)
	if errors.Is(err, ErrUnauthenticated) && refresh != "" && !refreshed {
		if tryRefresh() {
			user, err = m.provider.ResolveUser(ctx, access)
		}
	}
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			m.Clear(c)
		} else {
			logger.Warn().Err(err).Msg("could not resolve session user")
		}
		return nil
	}
	c.Set(accessTokenKey, access)
	return user
}

// expiresSoon reads the exp claim without verifying the token. It only
// decides when to refresh; identity always comes from the provider.
func (m *SessionManager) expiresSoon(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(m.now().Add(refreshSkew))
}

// Establish writes the session cookies for sess.
func (m *SessionManager) Establish(c *gin.Context, sess *Session) {
	if sess == nil {
		return
	}
	m.setCookie(c, AccessCookie, sess.AccessToken, cookieMaxAge)
	m.setCookie(c, RefreshCookie, sess.RefreshToken, cookieMaxAge)
}

// Clear expires both session cookies.
func (m *SessionManager) Clear(c *gin.Context) {
	m.setCookie(c, AccessCookie, "", -1)
	m.setCookie(c, RefreshCookie, "", -1)
}

// setCookie is a no-op once the response has started; headers can no longer
// change at that point.
func (m *SessionManager) setCookie(c *gin.Context, name, value string, maxAge int) {
	if c.Writer.Written() {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", m.secure, true)
}
