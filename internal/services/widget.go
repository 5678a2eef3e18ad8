package services

import (
	"context"

	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/internal/validation"
	"gorm.io/datatypes"
)

type WidgetService struct {
	store *store.Store
}

func NewWidgetService(s *store.Store) *WidgetService {
	return &WidgetService{store: s}
}

// ListByProject returns the widgets of an owned project.
func (s *WidgetService) ListByProject(ctx context.Context, userID, projectID string) ([]models.Widget, error) {
	db := s.store.Scoped(userID)
	if _, err := db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return db.ListWidgets(ctx, projectID)
}

func (s *WidgetService) Get(ctx context.Context, userID, id string) (*models.Widget, error) {
	return s.store.Scoped(userID).GetWidget(ctx, id)
}

func (s *WidgetService) Create(ctx context.Context, userID string, raw []byte) (*models.Widget, error) {
	in, err := validation.WidgetCreate(raw)
	if err != nil {
		return nil, err
	}
	widget := &models.Widget{
		ProjectID: in.ProjectID,
		Type:      in.Type,
		Config:    datatypes.NewJSONType(in.Config),
	}
	if err := s.store.Scoped(userID).CreateWidget(ctx, widget); err != nil {
		return nil, err
	}
	return widget, nil
}

// Update changes the type and merges a partial config onto the stored one.
func (s *WidgetService) Update(ctx context.Context, userID, id string, raw []byte) (*models.Widget, error) {
	in, err := validation.WidgetUpdate(raw)
	if err != nil {
		return nil, err
	}

	db := s.store.Scoped(userID)
	current, err := db.GetWidget(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.Config != nil {
		updates["config"] = datatypes.NewJSONType(in.Config.Apply(current.Config.Data()))
	}
	return db.UpdateWidget(ctx, id, updates)
}

func (s *WidgetService) Delete(ctx context.Context, userID, id string) error {
	return s.store.Scoped(userID).DeleteWidget(ctx, id)
}
