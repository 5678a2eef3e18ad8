package services

import (
	"context"

	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/plan"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/internal/validation"
	"github.com/koe-app/koe/pkg/logger"
)

type TestimonialService struct {
	store  *store.Store
	policy plan.Policy
}

func NewTestimonialService(s *store.Store, policy plan.Policy) *TestimonialService {
	return &TestimonialService{store: s, policy: policy}
}

// ListByProject returns an owned project's testimonials. An empty status
// lists all of them.
func (s *TestimonialService) ListByProject(ctx context.Context, userID, projectID, status string) ([]models.Testimonial, error) {
	db := s.store.Scoped(userID)
	if _, err := db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	var filter models.TestimonialStatus
	if status != "" {
		switch st := models.TestimonialStatus(status); st {
		case models.StatusPending, models.StatusApproved, models.StatusRejected:
			filter = st
		default:
			return nil, validation.FieldError("status", "must be one of: pending approved rejected")
		}
	}
	return db.ListTestimonials(ctx, projectID, filter)
}

// Moderate sets the status of a testimonial on an owned project.
func (s *TestimonialService) Moderate(ctx context.Context, userID, id string, raw []byte) (*models.Testimonial, error) {
	status, err := validation.TestimonialStatus(raw)
	if err != nil {
		return nil, err
	}
	t, err := s.store.Scoped(userID).UpdateTestimonialStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("testimonial_id", id).Str("status", string(status)).Msg("testimonial moderated")
	return t, nil
}

func (s *TestimonialService) Delete(ctx context.Context, userID, id string) error {
	return s.store.Scoped(userID).DeleteTestimonial(ctx, id)
}

// SubmissionResult is returned to the person who filled in a collection form.
type SubmissionResult struct {
	ID              string                   `json:"id"`
	Status          models.TestimonialStatus `json:"status"`
	ThankYouMessage string                   `json:"thank_you_message"`
}

// Submit stores a public submission as pending. The owner's testimonial cap
// is checked before anything is written.
func (s *TestimonialService) Submit(ctx context.Context, slug string, raw []byte) (*SubmissionResult, error) {
	db := s.store.Anonymous()
	project, err := db.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	form := project.FormConfig.Data()

	in, err := validation.TestimonialSubmission(raw, form)
	if err != nil {
		return nil, err
	}

	tier, count, err := db.ProjectQuota(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(plan.Testimonials, tier, count); err != nil {
		logger.Debug().Str("project_id", project.ID).Int64("count", count).Msg("testimonial limit reached")
		return nil, err
	}

	t := &models.Testimonial{
		ProjectID:     project.ID,
		AuthorName:    in.AuthorName,
		AuthorEmail:   in.AuthorEmail,
		AuthorTitle:   in.AuthorTitle,
		AuthorCompany: in.AuthorCompany,
		Content:       in.Content,
		Rating:        in.Rating,
	}
	if err := db.CreateTestimonial(ctx, t); err != nil {
		return nil, err
	}

	msg := form.ThankYouMessage
	if msg == "" {
		msg = models.DefaultFormConfig().ThankYouMessage
	}
	return &SubmissionResult{ID: t.ID, Status: t.Status, ThankYouMessage: msg}, nil
}
