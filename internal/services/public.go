package services

import (
	"context"
	"time"

	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/store"
)

const wallLimit = 100

// PublicTestimonial is the anonymous view of an approved testimonial. It
// never carries the author's email.
type PublicTestimonial struct {
	ID              string    `json:"id"`
	AuthorName      string    `json:"author_name"`
	AuthorTitle     string    `json:"author_title,omitempty"`
	AuthorCompany   string    `json:"author_company,omitempty"`
	AuthorAvatarURL string    `json:"author_avatar_url,omitempty"`
	Content         string    `json:"content"`
	Rating          int       `json:"rating,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toPublic(items []models.Testimonial) []PublicTestimonial {
	out := make([]PublicTestimonial, 0, len(items))
	for _, t := range items {
		out = append(out, PublicTestimonial{
			ID:              t.ID,
			AuthorName:      t.AuthorName,
			AuthorTitle:     t.AuthorTitle,
			AuthorCompany:   t.AuthorCompany,
			AuthorAvatarURL: t.AuthorAvatarURL,
			Content:         t.Content,
			Rating:          t.Rating,
			CreatedAt:       t.CreatedAt,
		})
	}
	return out
}

// PublicProject is the branding shown on collection forms and walls.
type PublicProject struct {
	Name       string            `json:"name"`
	Slug       string            `json:"slug"`
	BrandColor string            `json:"brand_color"`
	LogoURL    string            `json:"logo_url,omitempty"`
	FormConfig models.FormConfig `json:"form_config"`
}

func toPublicProject(p *models.Project) PublicProject {
	return PublicProject{
		Name:       p.Name,
		Slug:       p.Slug,
		BrandColor: p.BrandColor,
		LogoURL:    p.LogoURL,
		FormConfig: p.FormConfig.Data(),
	}
}

type Wall struct {
	Project      PublicProject       `json:"project"`
	Testimonials []PublicTestimonial `json:"testimonials"`
}

type WidgetPayload struct {
	ID           string              `json:"id"`
	Type         models.WidgetType   `json:"type"`
	Config       models.WidgetConfig `json:"config"`
	BrandColor   string              `json:"brand_color"`
	Testimonials []PublicTestimonial `json:"testimonials"`
}

// PublicService answers unauthenticated reads. Every query runs through
// the anonymous client, so only approved testimonials are visible.
type PublicService struct {
	store *store.Store
}

func NewPublicService(s *store.Store) *PublicService {
	return &PublicService{store: s}
}

// Project returns the collection form view of a project.
func (s *PublicService) Project(ctx context.Context, slug string) (*PublicProject, error) {
	p, err := s.store.Anonymous().GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	view := toPublicProject(p)
	return &view, nil
}

func (s *PublicService) Wall(ctx context.Context, slug string) (*Wall, error) {
	db := s.store.Anonymous()
	p, err := db.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	items, err := db.ListApproved(ctx, p.ID, wallLimit)
	if err != nil {
		return nil, err
	}
	return &Wall{Project: toPublicProject(p), Testimonials: toPublic(items)}, nil
}

// Widget returns the embed payload, limited to the widget's max_items.
func (s *PublicService) Widget(ctx context.Context, id string) (*WidgetPayload, error) {
	db := s.store.Anonymous()
	w, err := db.GetWidget(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := db.GetProject(ctx, w.ProjectID)
	if err != nil {
		return nil, err
	}

	cfg := w.Config.Data()
	limit := cfg.MaxItems
	if limit <= 0 {
		limit = models.DefaultWidgetConfig().MaxItems
	}
	items, err := db.ListApproved(ctx, w.ProjectID, limit)
	if err != nil {
		return nil, err
	}
	return &WidgetPayload{
		ID:           w.ID,
		Type:         w.Type,
		Config:       cfg,
		BrandColor:   p.BrandColor,
		Testimonials: toPublic(items),
	}, nil
}
