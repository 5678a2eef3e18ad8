package main

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/middleware"
	"github.com/koe-app/koe/pkg/logger"
	"github.com/koe-app/koe/pkg/response"
	"github.com/koe-app/koe/web"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) error {
	cfg := svc.cfg

	// Client IPs key the rate limiters, so forwarded headers are only
	// honoured from configured proxies.
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return err
	}

	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(cfg.Server.AppURL))
	r.Use(middleware.Session(svc.sessions, svc.profiles))
	r.Use(middleware.ProtectPages(middleware.ProtectedPrefixes))

	publicLimiter := middleware.NewRateLimiter(cfg.RateLimit.PublicRPS, cfg.RateLimit.PublicBurst)
	submitLimiter := middleware.NewRateLimiter(cfg.RateLimit.SubmitRPS, cfg.RateLimit.SubmitBurst)

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/robots.txt", svc.seoHandler.Robots)
	r.GET("/sitemap.xml", svc.seoHandler.Sitemap)
	r.GET("/widget.js", serveWidgetScript)

	api := r.Group("/api")
	{
		// Auth
		authGroup := api.Group("/auth")
		{
			limited := authGroup.Group("", submitLimiter.Middleware())
			limited.POST("/login", svc.authHandler.Login)
			limited.POST("/register", svc.authHandler.Register)
			limited.POST("/forgot-password", svc.authHandler.ForgotPassword)

			session := authGroup.Group("", middleware.AuthRequired())
			session.POST("/logout", svc.authHandler.Logout)
			session.POST("/reset-password", svc.authHandler.ResetPassword)
			session.GET("/me", svc.authHandler.Me)
		}

		// Public surfaces: hosted form, wall, widget data, contact
		public := api.Group("/public", publicLimiter.Middleware())
		{
			public.GET("/projects/:slug", svc.publicHandler.Project)
			public.POST("/projects/:slug/testimonials", submitLimiter.Middleware(), svc.publicHandler.Submit)
			public.GET("/walls/:slug", svc.publicHandler.Wall)
			public.GET("/widgets/:id", svc.publicHandler.Widget)
		}
		api.POST("/contact", publicLimiter.Middleware(), submitLimiter.Middleware(), svc.publicHandler.Contact)

		// Stripe webhook, authenticated by signature
		api.POST("/webhooks/stripe", svc.billingHandler.Webhook)

		protected := api.Group("", middleware.AuthRequired(), middleware.AuditLog())
		{
			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.PATCH("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)
			protected.POST("/projects/:id/logo", svc.projectHandler.UploadLogo)
			protected.GET("/projects/:id/testimonials", svc.projectHandler.Testimonials)
			protected.GET("/projects/:id/widgets", svc.projectHandler.Widgets)

			// Testimonials
			protected.PATCH("/testimonials/:id", svc.testimonialHandler.Moderate)
			protected.DELETE("/testimonials/:id", svc.testimonialHandler.Delete)

			// Widgets
			protected.POST("/widgets", svc.widgetHandler.Create)
			protected.GET("/widgets/:id", svc.widgetHandler.GetByID)
			protected.PATCH("/widgets/:id", svc.widgetHandler.Update)
			protected.DELETE("/widgets/:id", svc.widgetHandler.Delete)

			// Billing
			protected.GET("/usage", svc.billingHandler.Usage)
			protected.POST("/billing/checkout", svc.billingHandler.Checkout)
			protected.POST("/billing/portal", svc.billingHandler.Portal)
		}
	}

	r.NoRoute(spaHandler(web.Static()))
	return nil
}

func serveWidgetScript(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", web.WidgetScript())
}

// spaHandler serves embedded files by path and falls back to index.html so
// the front-end router can take over page URLs.
func spaHandler(static fs.FS) gin.HandlerFunc {
	serveIndex := func(c *gin.Context) {
		data, err := fs.ReadFile(static, "index.html")
		if err != nil {
			c.String(http.StatusNotFound, "index.html not found")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			response.NotFound(c, "not found")
			return
		}
		p := strings.TrimPrefix(c.Request.URL.Path, "/")
		if strings.HasPrefix(p, "api/") {
			response.NotFound(c, "not found")
			return
		}
		if p == "" || p == "index.html" {
			serveIndex(c)
			return
		}

		data, err := fs.ReadFile(static, p)
		if err != nil {
			serveIndex(c)
			return
		}
		contentType := mime.TypeByExtension(path.Ext(p))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, data)
	}
}
