package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newFakeGoTrue(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			if r.Method == http.MethodPut {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"u1","email":"ada@example.com","user_metadata":{"full_name":"Ada L"}}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"msg":"pg: password authentication failed for service_role"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"msg":"invalid JWT"}`))
		}
	})

	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Query().Get("grant_type") {
		case "refresh_token":
			if body["refresh_token"] != "r1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_code":"refresh_token_not_found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"good","refresh_token":"r2","expires_in":3600,"user":{"id":"u1"}}`))
		case "password":
			if body["password"] != "correct horse" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_code":"invalid_credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"good","refresh_token":"r1","expires_at":4102444800}`))
		}
	})

	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["email"] {
		case "taken@example.com":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
		case "confirm@example.com":
			_, _ = w.Write([]byte(`{"id":"u2","email":"confirm@example.com"}`))
		default:
			_, _ = w.Write([]byte(`{"access_token":"good","refresh_token":"r1","expires_in":3600}`))
		}
	})

	mux.HandleFunc("/auth/v1/recover", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("redirect_to") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSupabaseProvider_ResolveUser(t *testing.T) {
	srv := newFakeGoTrue(t)
	p := NewSupabaseProvider(srv.URL, "anon", srv.Client())
	ctx := context.Background()

	u, err := p.ResolveUser(ctx, "good")
	if err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	if u.ID != "u1" || u.Email != "ada@example.com" {
		t.Errorf("user = %+v", u)
	}
	if name, _ := u.Claim("full_name"); name != "Ada L" {
		t.Errorf("full_name claim = %q", name)
	}

	if _, err := p.ResolveUser(ctx, "forged"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("forged token error = %v, expected ErrUnauthenticated", err)
	}
	if _, err := p.ResolveUser(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("empty token error = %v", err)
	}
}

func TestSupabaseProvider_HidesUpstreamDetail(t *testing.T) {
	srv := newFakeGoTrue(t)
	p := NewSupabaseProvider(srv.URL, "anon", srv.Client())

	_, err := p.ResolveUser(context.Background(), "broken")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if strings.Contains(err.Error(), "service_role") {
		t.Errorf("error leaks upstream body: %v", err)
	}
}

func TestSupabaseProvider_Refresh(t *testing.T) {
	srv := newFakeGoTrue(t)
	p := NewSupabaseProvider(srv.URL, "anon", srv.Client())
	ctx := context.Background()

	sess, err := p.Refresh(ctx, "r1")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if sess.AccessToken != "good" || sess.RefreshToken != "r2" || sess.ExpiresAt.IsZero() {
		t.Errorf("session = %+v", sess)
	}

	if _, err := p.Refresh(ctx, "stale"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("stale refresh error = %v, expected ErrUnauthenticated", err)
	}
}

func TestSupabaseProvider_SignInSignUp(t *testing.T) {
	srv := newFakeGoTrue(t)
	p := NewSupabaseProvider(srv.URL, "anon", srv.Client())
	ctx := context.Background()

	if _, err := p.SignIn(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password error = %v", err)
	}
	sess, err := p.SignIn(ctx, "ada@example.com", "correct horse")
	if err != nil || sess.RefreshToken != "r1" || sess.ExpiresAt.UTC().Year() != 2100 {
		t.Errorf("SignIn() = %+v, %v", sess, err)
	}

	if _, err := p.SignUp(ctx, "taken@example.com", "password1", nil); !errors.Is(err, ErrUserExists) {
		t.Errorf("taken email error = %v", err)
	}
	sess, err = p.SignUp(ctx, "confirm@example.com", "password1", map[string]interface{}{"name": "C"})
	if err != nil || sess != nil {
		t.Errorf("confirmation sign-up = %+v, %v, expected nil session", sess, err)
	}
	sess, err = p.SignUp(ctx, "new@example.com", "password1", nil)
	if err != nil || sess == nil {
		t.Errorf("auto-confirmed sign-up = %+v, %v", sess, err)
	}
}

func TestSupabaseProvider_RecoverAndSignOut(t *testing.T) {
	srv := newFakeGoTrue(t)
	p := NewSupabaseProvider(srv.URL, "anon", srv.Client())
	ctx := context.Background()

	if err := p.RecoverPassword(ctx, "ada@example.com", "https://koe.so/reset-password"); err != nil {
		t.Errorf("RecoverPassword() error = %v", err)
	}
	if err := p.SignOut(ctx, "good"); err != nil {
		t.Errorf("SignOut() error = %v", err)
	}
	if err := p.UpdatePassword(ctx, "good", "new-password"); err != nil {
		t.Errorf("UpdatePassword() error = %v", err)
	}
	if err := p.UpdatePassword(ctx, "", "new-password"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("UpdatePassword without token error = %v", err)
	}
}
