package services

import (
	"context"
	"encoding/xml"
	"time"

	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/pkg/logger"
)

const (
	sitemapNS       = "http://www.sitemaps.org/schemas/sitemap/0.9"
	maxSitemapWalls = 5000
)

var staticPages = []string{"/", "/login", "/register"}

type SitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

type SitemapService struct {
	store          *store.Store
	serviceRoleKey string
	appURL         string
}

func NewSitemapService(s *store.Store, serviceRoleKey, appURL string) *SitemapService {
	return &SitemapService{store: s, serviceRoleKey: serviceRoleKey, appURL: appURL}
}

// Build lists the static pages plus one wall page per project. If the
// project list cannot be read the static pages are returned alone.
func (s *SitemapService) Build(ctx context.Context) URLSet {
	set := URLSet{XMLNS: sitemapNS}
	for _, p := range staticPages {
		set.URLs = append(set.URLs, SitemapURL{Loc: s.appURL + p})
	}

	db, err := s.store.Privileged(s.serviceRoleKey)
	if err != nil {
		logger.Error().Err(err).Msg("sitemap: privileged client unavailable")
		return set
	}
	projects, err := db.ListPublicProjects(ctx, maxSitemapWalls)
	if err != nil {
		logger.Error().Err(err).Msg("sitemap: listing projects failed, serving static entries")
		return set
	}
	for _, p := range projects {
		set.URLs = append(set.URLs, SitemapURL{
			Loc:     s.appURL + "/wall/" + p.Slug,
			LastMod: p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return set
}
