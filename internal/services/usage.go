package services

import (
	"context"

	"github.com/koe-app/koe/internal/plan"
	"github.com/koe-app/koe/internal/store"
)

type UsageItem struct {
	Used  int64      `json:"used"`
	Limit plan.Limit `json:"limit"`
}

// Usage is the dashboard's plan summary. Limit is null when unbounded.
type Usage struct {
	Plan                   plan.Tier        `json:"plan"`
	Projects               UsageItem        `json:"projects"`
	TestimonialsPerProject plan.Limit       `json:"testimonials_per_project"`
	Testimonials           map[string]int64 `json:"testimonials"`
}

type UsageService struct {
	store  *store.Store
	policy plan.Policy
}

func NewUsageService(s *store.Store, policy plan.Policy) *UsageService {
	return &UsageService{store: s, policy: policy}
}

func (s *UsageService) Get(ctx context.Context, userID string) (*Usage, error) {
	db := s.store.Scoped(userID)
	tier, err := userTier(ctx, db, userID)
	if err != nil {
		return nil, err
	}

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
	for _, id := range ids {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}

	return &Usage{
		Plan: tier,
		Projects: UsageItem{
			Used:  int64(len(projects)),
			Limit: s.policy.LimitFor(plan.Projects, tier),
		},
		TestimonialsPerProject: s.policy.LimitFor(plan.Testimonials, tier),
		Testimonials:           counts,
	}, nil
}
