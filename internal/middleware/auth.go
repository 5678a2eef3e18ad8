package middleware

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/auth"
	"github.com/koe-app/koe/pkg/logger"
	"github.com/koe-app/koe/pkg/response"
)

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

// ProtectedPrefixes are the page trees that need a session.
var ProtectedPrefixes = []string{"/dashboard", "/projects", "/billing"}

var (
	skippedPrefixes   = []string{"/static/", "/assets/", "/_image", "/widget.js", "/favicon.ico"}
	skippedExtensions = map[string]bool{
		".svg": true, ".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".webp": true, ".ico": true,
	}
)

type SessionResolver interface {
	Resolve(c *gin.Context) *auth.User
}

type ProfileEnsurer interface {
	Ensure(ctx context.Context, user *auth.User)
}

// SkipSession reports whether a path is served without session handling:
// static assets, image endpoints and the embeddable widget script.
func SkipSession(p string) bool {
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return skippedExtensions[strings.ToLower(path.Ext(p))]
}

// Session resolves the request's user from its cookies, repairs a missing
// profile, and stores the user on the context.
func Session(resolver SessionResolver, ensurer ProfileEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if SkipSession(c.Request.URL.Path) {
			c.Next()
			return
		}

		if user := resolver.Resolve(c); user != nil {
			if ensurer != nil {
				ensurer.Ensure(c.Request.Context(), user)
			}
			auth.SetUser(c, user)
			c.Set(logger.UserIDKey, user.ID)
		}
		c.Next()
	}
}

func isProtected(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// ProtectPages redirects unauthenticated requests under prefixes to the
// login page. It must run after Session.
func ProtectPages(prefixes []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.CurrentUser(c); !ok && isProtected(c.Request.URL.Path, prefixes) {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthRequired answers 401 for API calls without a session.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.CurrentUser(c); !ok {
			response.Unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's id, or "".
func GetUserID(c *gin.Context) string {
	if u, ok := auth.CurrentUser(c); ok {
		return u.ID
	}
	return ""
}
