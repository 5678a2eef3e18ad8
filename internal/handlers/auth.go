package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/auth"
	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/internal/validation"
	"github.com/koe-app/koe/pkg/logger"
	"github.com/koe-app/koe/pkg/response"
)

const resetRequestedMessage = "If an account exists for that email, a password reset link is on its way."

type AuthHandler struct {
	sessions *auth.SessionManager
	profiles *auth.ProfileEnsurer
	store    *store.Store
	appURL   string
}

func NewAuthHandler(sessions *auth.SessionManager, profiles *auth.ProfileEnsurer, s *store.Store, appURL string) *AuthHandler {
	return &AuthHandler{sessions: sessions, profiles: profiles, store: s, appURL: appURL}
}

// authError maps provider failures. Upstream detail stays in the server log.
func authError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		err = response.NewUnauthorized("invalid email or password")
	case errors.Is(err, auth.ErrUserExists):
		err = response.NewConflict("an account with this email already exists")
	case errors.Is(err, auth.ErrUnauthenticated):
		err = response.NewUnauthorized("session expired, please sign in again")
	case errors.Is(err, auth.ErrRateLimited):
		c.Header("Retry-After", "60")
		response.TooManyRequests(c, "too many attempts, please try again later")
		return
	}
	fail(c, err)
}

type meResponse struct {
	User    *auth.User      `json:"user"`
	Profile *models.Profile `json:"profile,omitempty"`
}

// Login signs in with email and password
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	in, err := validation.Credentials(raw, false)
	if err != nil {
		fail(c, err)
		return
	}

	sess, err := h.sessions.Provider().SignIn(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		authError(c, err)
		return
	}
	h.sessions.Establish(c, sess)
	h.profiles.Ensure(c.Request.Context(), sess.User)

	response.Success(c, meResponse{User: sess.User})
}

// Register creates an account. When the provider asks for email
// confirmation no session is issued.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	in, err := validation.Credentials(raw, true)
	if err != nil {
		fail(c, err)
		return
	}

	metadata := map[string]interface{}{}
	if in.Name != "" {
		metadata["name"] = in.Name
	}
	sess, err := h.sessions.Provider().SignUp(c.Request.Context(), in.Email, in.Password, metadata)
	if err != nil {
		authError(c, err)
		return
	}
	if sess == nil {
		c.JSON(http.StatusAccepted, gin.H{"message": "Check your email to confirm your account."})
		return
	}

	h.sessions.Establish(c, sess)
	h.profiles.Ensure(c.Request.Context(), sess.User)
	response.Created(c, meResponse{User: sess.User})
}

// Logout revokes the session and clears the cookies
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := auth.AccessToken(c); token != "" {
		if err := h.sessions.Provider().SignOut(c.Request.Context(), token); err != nil {
			logger.Warn().Err(err).Msg("sign out failed")
		}
	}
	h.sessions.Clear(c)
	response.Message(c, "signed out")
}

// ForgotPassword always answers the same message so it cannot be used to
// probe for accounts.
// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	email, err := validation.PasswordResetRequest(raw)
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.sessions.Provider().RecoverPassword(c.Request.Context(), email, h.appURL+"/reset-password"); err != nil {
		logger.Warn().Err(err).Msg("password recovery request failed")
	}
	response.Message(c, resetRequestedMessage)
}

// ResetPassword sets a new password for the signed-in user
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	password, err := validation.NewPassword(raw)
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.sessions.Provider().UpdatePassword(c.Request.Context(), auth.AccessToken(c), password); err != nil {
		authError(c, err)
		return
	}
	response.Message(c, "password updated")
}

// Me returns the signed-in user and their profile
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	profile, err := h.store.Scoped(user.ID).GetProfile(c.Request.Context(), user.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		fail(c, err)
		return
	}
	response.Success(c, meResponse{User: user, Profile: profile})
}
