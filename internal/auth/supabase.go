package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/koe-app/koe/pkg/logger"
)

const maxErrorBody = 4 << 10

// SupabaseProvider talks to a GoTrue-compatible auth API with the public
// anon key.
type SupabaseProvider struct {
	baseURL string
	anonKey string
	client  *http.Client
}

func NewSupabaseProvider(baseURL, anonKey string, client *http.Client) *SupabaseProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SupabaseProvider{baseURL: baseURL, anonKey: anonKey, client: client}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

func (r *tokenResponse) session() *Session {
	s := &Session{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken, User: r.User}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return s
}

// apiError is the subset of provider error payloads used for mapping.
type apiError struct {
	ErrorCode string `json:"error_code"`
	Grant     string `json:"error"`
}

func (p *SupabaseProvider) ResolveUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}
	var u User
	if err := p.do(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%w: user response without id", ErrProvider)
	}
	return &u, nil
}

func (p *SupabaseProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}
	q := url.Values{"grant_type": {"refresh_token"}}
	var tr tokenResponse
	err := p.do(ctx, http.MethodPost, "/auth/v1/token", q, "", map[string]string{"refresh_token": refreshToken}, &tr)
	if err != nil {
		// An unusable refresh token is a dead session, not bad credentials.
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access token", ErrProvider)
	}
	return tr.session(), nil
}

func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	err := p.do(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil, nil)
	if errors.Is(err, ErrUnauthenticated) {
		return nil
	}
	return err
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	q := url.Values{"grant_type": {"password"}}
	var tr tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token", q, "", body, &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access token", ErrProvider)
	}
	return tr.session(), nil
}

func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*Session, error) {
	body := map[string]interface{}{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	var tr tokenResponse
	if err := p.do(ctx, http.MethodPost, "/auth/v1/signup", nil, "", body, &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, nil
	}
	return tr.session(), nil
}

func (p *SupabaseProvider) RecoverPassword(ctx context.Context, email, redirectTo string) error {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	return p.do(ctx, http.MethodPost, "/auth/v1/recover", q, "", map[string]string{"email": email}, nil)
}

func (p *SupabaseProvider) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if accessToken == "" {
		return ErrUnauthenticated
	}
	return p.do(ctx, http.MethodPut, "/auth/v1/user", nil, accessToken, map[string]string{"password": password}, nil)
}

// do performs one API call. Provider error bodies are logged and mapped to
// the package sentinels; they are never returned verbatim.
func (p *SupabaseProvider) do(ctx context.Context, method, path string, query url.Values, bearer string, payload, out interface{}) error {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("auth provider request failed")
		return fmt.Errorf("%w: %s", ErrProvider, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return p.mapError(path, resp.StatusCode, raw)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		logger.Error().Err(err).Str("path", path).Msg("auth provider returned malformed JSON")
		return fmt.Errorf("%w: malformed response", ErrProvider)
	}
	return nil
}

func (p *SupabaseProvider) mapError(path string, status int, raw []byte) error {
	var ae apiError
	_ = json.Unmarshal(raw, &ae)

	event := logger.Debug()
	if status >= 500 {
		event = logger.Error()
	}
	event.Str("path", path).Int("status", status).Str("error_code", ae.ErrorCode).
		Str("body", string(raw)).Msg("auth provider rejected request")

	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthenticated
	case ae.ErrorCode == "user_already_exists" || ae.ErrorCode == "email_exists":
		return ErrUserExists
	case status == http.StatusBadRequest && (ae.Grant == "invalid_grant" || ae.ErrorCode == "invalid_credentials" ||
		ae.ErrorCode == "refresh_token_not_found" || ae.ErrorCode == "refresh_token_already_used"):
		return ErrInvalidCredentials
	}
	return fmt.Errorf("%w: status %d", ErrProvider, status)
}
