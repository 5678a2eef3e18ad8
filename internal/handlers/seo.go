package handlers

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/pkg/response"
)

var (
	robotsAllow    = []string{"/", "/login", "/register", "/wall/"}
	robotsDisallow = []string{
		"/dashboard", "/projects", "/billing", "/api/", "/f/",
		"/forgot-password", "/reset-password",
	}
)

type SEOHandler struct {
	sitemap *services.SitemapService
	appURL  string
}

func NewSEOHandler(sitemap *services.SitemapService, appURL string) *SEOHandler {
	return &SEOHandler{sitemap: sitemap, appURL: appURL}
}

// RobotsText renders robots.txt for appURL.
func RobotsText(appURL string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	for _, p := range robotsAllow {
		b.WriteString("Allow: " + p + "\n")
	}
	for _, p := range robotsDisallow {
		b.WriteString("Disallow: " + p + "\n")
	}
	b.WriteString("\nSitemap: " + appURL + "/sitemap.xml\n")
	return b.String()
}

// GET /robots.txt
func (h *SEOHandler) Robots(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.String(http.StatusOK, RobotsText(h.appURL))
}

// Sitemap lists static pages and public walls. It still answers with the
// static pages when projects cannot be listed.
// GET /sitemap.xml
func (h *SEOHandler) Sitemap(c *gin.Context) {
	out, err := xml.MarshalIndent(h.sitemap.Build(c.Request.Context()), "", "  ")
	if err != nil {
		_ = c.Error(err)
		response.ServerError(c)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
