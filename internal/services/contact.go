package services

import (
	"context"

	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/internal/validation"
	"github.com/koe-app/koe/pkg/logger"
)

type ContactService struct {
	store *store.Store
}

func NewContactService(s *store.Store) *ContactService {
	return &ContactService{store: s}
}

func (s *ContactService) Submit(ctx context.Context, raw []byte) (*models.ContactMessage, error) {
	in, err := validation.ContactMessage(raw)
	if err != nil {
		return nil, err
	}
	msg := &models.ContactMessage{Name: in.Name, Email: in.Email, Message: in.Message}
	if err := s.store.Anonymous().CreateContactMessage(ctx, msg); err != nil {
		return nil, err
	}
	logger.Info().Str("contact_id", msg.ID).Msg("contact message received")
	return msg, nil
}
