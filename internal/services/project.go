package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/plan"
	"github.com/koe-app/koe/internal/storage"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/internal/validation"
	"github.com/koe-app/koe/pkg/logger"
	"gorm.io/datatypes"
)

// ErrStorageDisabled is returned by logo uploads when no bucket is configured.
var ErrStorageDisabled = errors.New("logo storage is not configured")

const maxSlugAttempts = 20

type ProjectService struct {
	store  *store.Store
	policy plan.Policy
	logos  storage.LogoStore
}

// NewProjectService wires the project operations. logos may be nil.
func NewProjectService(s *store.Store, policy plan.Policy, logos storage.LogoStore) *ProjectService {
	return &ProjectService{store: s, policy: policy, logos: logos}
}

// ProjectWithCount is a dashboard list entry.
type ProjectWithCount struct {
	models.Project
	TestimonialCount int64 `json:"testimonial_count"`
}

// List returns the user's projects, newest first, with testimonial counts.
func (s *ProjectService) List(ctx context.Context, userID string) ([]ProjectWithCount, error) {
	db := s.store.Scoped(userID)
	projects, err := db.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	counts, err := db.TestimonialCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]ProjectWithCount, 0, len(projects))
	for _, p := range projects {
		items = append(items, ProjectWithCount{Project: p, TestimonialCount: counts[p.ID]})
	}
	return items, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, id string) (*models.Project, error) {
	return s.store.Scoped(userID).GetProject(ctx, id)
}

// Create checks the plan's project cap before writing anything. Without a
// slug one is derived from the name and suffixed until unused.
func (s *ProjectService) Create(ctx context.Context, userID string, raw []byte) (*models.Project, error) {
	in, err := validation.ProjectCreate(raw)
	if err != nil {
		return nil, err
	}

	db := s.store.Scoped(userID)
	tier, err := userTier(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	count, err := db.CountProjects(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(plan.Projects, tier, count); err != nil {
		return nil, err
	}

	slug := in.Slug
	if slug == "" {
		slug, err = s.uniqueSlug(ctx, db, validation.SlugFromName(in.Name))
		if err != nil {
			return nil, err
		}
	} else {
		taken, err := db.SlugTaken(ctx, slug, "")
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, validation.FieldError("slug", "is already taken")
		}
	}

	project := &models.Project{
		Name:       in.Name,
		Slug:       slug,
		BrandColor: in.BrandColor,
		FormConfig: datatypes.NewJSONType(models.DefaultFormConfig()),
	}
	if err := db.CreateProject(ctx, project); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, validation.FieldError("slug", "is already taken")
		}
		return nil, err
	}

	logger.Info().Str("project_id", project.ID).Str("slug", project.Slug).Msg("project created")
	return project, nil
}

func (s *ProjectService) uniqueSlug(ctx context.Context, db *store.Client, base string) (string, error) {
	candidate := base
	for i := 2; i < maxSlugAttempts+2; i++ {
		taken, err := db.SlugTaken(ctx, candidate, "")
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		trimmed := base
		if len(trimmed)+len(suffix) > 50 {
			trimmed = strings.TrimRight(trimmed[:50-len(suffix)], "-")
		}
		candidate = trimmed + suffix
	}
	return "", validation.FieldError("slug", "could not be generated, please choose one")
}

// Update applies a partial update to an owned project.
func (s *ProjectService) Update(ctx context.Context, userID, id string, raw []byte) (*models.Project, error) {
	in, err := validation.ProjectUpdate(raw)
	if err != nil {
		return nil, err
	}

	db := s.store.Scoped(userID)
	if _, err := db.GetProject(ctx, id); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Slug != nil {
		taken, err := db.SlugTaken(ctx, *in.Slug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, validation.FieldError("slug", "is already taken")
		}
		updates["slug"] = *in.Slug
	}
	if in.BrandColor != nil {
		updates["brand_color"] = *in.BrandColor
	}
	if in.LogoURL != nil {
		updates["logo_url"] = *in.LogoURL
	}
	if in.FormConfig != nil {
		updates["form_config"] = datatypes.NewJSONType(*in.FormConfig)
	}

	project, err := db.UpdateProject(ctx, id, updates)
	if errors.Is(err, store.ErrConflict) {
		return nil, validation.FieldError("slug", "is already taken")
	}
	return project, err
}

func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Scoped(userID).DeleteProject(ctx, id); err != nil {
		return err
	}
	logger.Info().Str("project_id", id).Msg("project deleted")
	return nil
}

// UploadLogo stores a logo image and points the project at it.
// The type is sniffed from the content, never taken from the client.
func (s *ProjectService) UploadLogo(ctx context.Context, userID, id string, r io.Reader, size int64) (*models.Project, error) {
	if s.logos == nil {
		return nil, ErrStorageDisabled
	}
	if size > storage.MaxLogoSize {
		return nil, validation.FieldError("logo", "must be 2 MB or smaller")
	}
	contentType, ext, body, err := storage.SniffLogo(r)
	if errors.Is(err, storage.ErrUnsupportedLogo) {
		return nil, validation.FieldError("logo", "must be a PNG, JPEG or WebP image")
	}
	if err != nil {
		return nil, err
	}

	db := s.store.Scoped(userID)
	if _, err := db.GetProject(ctx, id); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("logos/%s/%s%s", id, uuid.NewString(), ext)
	url, err := s.logos.Put(ctx, name, body, size, contentType)
	if err != nil {
		return nil, err
	}
	return db.UpdateProject(ctx, id, map[string]interface{}{"logo_url": url})
}

// userTier reads the caller's plan. A profile not yet created counts as Free.
func userTier(ctx context.Context, db *store.Client, userID string) (plan.Tier, error) {
	profile, err := db.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return plan.Free, nil
	}
	if err != nil {
		return "", err
	}
	return plan.ParseTier(profile.Plan), nil
}
