package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// PublicCORS serves the embed and public form endpoints to any origin.
// Credentials are never allowed, so tenant cookies stay on the app origin.
func PublicCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// AppCORS allows credentialed requests from the application origin only.
func AppCORS(appURL string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{appURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// IsPublicPath reports whether p is served to third-party origins.
func IsPublicPath(p string) bool {
	return strings.HasPrefix(p, "/api/public/") || p == "/api/contact" || p == "/widget.js"
}

// CORS picks PublicCORS or AppCORS per request path. It runs globally so
// preflight requests are answered before routing.
func CORS(appURL string) gin.HandlerFunc {
	public := PublicCORS()
	app := AppCORS(appURL)
	return func(c *gin.Context) {
		if IsPublicPath(c.Request.URL.Path) {
			public(c)
			return
		}
		app(c)
	}
}
