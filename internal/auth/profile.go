package auth

import (
	"context"
	"errors"

	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/pkg/logger"
)

// ProfileEnsurer repairs missing profile rows for authenticated users.
type ProfileEnsurer struct {
	store *store.Store
}

func NewProfileEnsurer(s *store.Store) *ProfileEnsurer {
	return &ProfileEnsurer{store: s}
}

// Ensure creates the user's profile from provider claims when it is
// missing. An existing profile means no write. Failures are logged and
// never returned.
func (e *ProfileEnsurer) Ensure(ctx context.Context, user *User) {
	if user == nil || user.ID == "" {
		return
	}
	client := e.store.Scoped(user.ID)

	_, err := client.GetProfile(ctx, user.ID)
	if err == nil {
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		logger.Warn().Err(err).Str("user_id", user.ID).Msg("profile lookup failed")
		return
	}

	created, err := client.InsertProfile(ctx, ProfileFromUser(user))
	if err != nil {
		logger.Warn().Err(err).Str("user_id", user.ID).Msg("profile self-heal failed")
		return
	}
	if created {
		logger.Info().Str("user_id", user.ID).Msg("created missing profile")
	}
}

// ProfileFromUser builds a profile from provider claims. The name falls
// back from "name" to "full_name" to empty.
func ProfileFromUser(user *User) *models.Profile {
	name, ok := user.Claim("name")
	if !ok {
		name, _ = user.Claim("full_name")
	}
	avatar, _ := user.Claim("avatar_url")
	return &models.Profile{
		ID:        user.ID,
		Email:     user.Email,
		Name:      name,
		AvatarURL: avatar,
	}
}
