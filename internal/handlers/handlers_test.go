package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/auth"
	"github.com/koe-app/koe/internal/middleware"
	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/plan"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/internal/testutil"
	"gorm.io/gorm"
)

const (
	serviceKey = "service-role-secret"
	tokenA     = "token-a"
	tokenB     = "token-b"
)

type stubProvider struct {
	users      map[string]*auth.User
	signInErr  error
	recoverErr error
	recovered  []string
	signedOut  []string
}

func (p *stubProvider) ResolveUser(_ context.Context, token string) (*auth.User, error) {
	if u, ok := p.users[token]; ok {
		return u, nil
	}
	return nil, auth.ErrUnauthenticated
}

func (p *stubProvider) Refresh(context.Context, string) (*auth.Session, error) {
	return nil, auth.ErrUnauthenticated
}

func (p *stubProvider) SignOut(_ context.Context, token string) error {
	p.signedOut = append(p.signedOut, token)
	return nil
}

func (p *stubProvider) SignIn(_ context.Context, email, _ string) (*auth.Session, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	return &auth.Session{
		AccessToken:  tokenA,
		RefreshToken: "refresh-a",
		User:         &auth.User{ID: "user-a", Email: email},
	}, nil
}

func (p *stubProvider) SignUp(context.Context, string, string, map[string]interface{}) (*auth.Session, error) {
	return nil, nil
}

func (p *stubProvider) RecoverPassword(_ context.Context, email, _ string) error {
	p.recovered = append(p.recovered, email)
	return p.recoverErr
}

func (p *stubProvider) UpdatePassword(context.Context, string, string) error { return nil }

type testApp struct {
	router   *gin.Engine
	db       *gorm.DB
	provider *stubProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	s := store.New(db, serviceKey)
	policy := plan.DefaultPolicy()
	provider := &stubProvider{users: map[string]*auth.User{
		tokenA: {ID: "user-a", Email: "a@example.com"},
		tokenB: {ID: "user-b", Email: "b@example.com"},
	}}
	sessions := auth.NewSessionManager(provider, false)
	ensurer := auth.NewProfileEnsurer(s)

	projects := services.NewProjectService(s, policy, nil)
	widgets := services.NewWidgetService(s)
	testimonials := services.NewTestimonialService(s, policy)
	billing := services.NewBillingService(s, nil, services.BillingConfig{
		WebhookSecret:  "whsec_test",
		AppURL:         "https://koe.so",
		ServiceRoleKey: serviceKey,
	})

	authH := NewAuthHandler(sessions, ensurer, s, "https://koe.so")
	projectH := NewProjectHandler(projects, widgets, testimonials)
	widgetH := NewWidgetHandler(widgets)
	publicH := NewPublicHandler(services.NewPublicService(s), testimonials, services.NewContactService(s))
	billingH := NewBillingHandler(billing, services.NewUsageService(s, policy))
	seoH := NewSEOHandler(services.NewSitemapService(s, serviceKey, "https://koe.so"), "https://koe.so")

	r := gin.New()
	r.Use(middleware.Session(sessions, ensurer))
	r.GET("/robots.txt", seoH.Robots)
	r.GET("/sitemap.xml", seoH.Sitemap)
	r.GET("/health", NewHealthHandler(db).CheckHealth)

	api := r.Group("/api")
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/forgot-password", authH.ForgotPassword)
	api.GET("/public/widgets/:id", publicH.Widget)
	api.POST("/public/projects/:slug/testimonials", publicH.Submit)
	api.POST("/contact", publicH.Contact)
	api.POST("/webhooks/stripe", billingH.Webhook)

	private := api.Group("", middleware.AuthRequired())
	private.POST("/auth/logout", authH.Logout)
	private.GET("/auth/me", authH.Me)
	private.GET("/projects", projectH.List)
	private.POST("/projects", projectH.Create)
	private.PATCH("/projects/:id", projectH.Update)
	private.POST("/projects/:id/logo", projectH.UploadLogo)
	private.POST("/widgets", widgetH.Create)
	private.GET("/usage", billingH.Usage)
	private.POST("/billing/checkout", billingH.Checkout)

	return &testApp{router: r, db: db, provider: provider}
}

func (a *testApp) do(method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.AccessCookie, Value: token})
	}
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestWidgets_CreateRequiresSession(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/api/widgets", "", `{"project_id":"x","type":"wall"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", w.Code)
	}
}

func TestWidgets_CreateValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/api/widgets", tokenA, `{"project_id":"not-a-uuid","type":"grid"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, expected 422", w.Code)
	}
	body := decodeBody(t, w)
	fields, _ := body["fields"].(map[string]interface{})
	if fields["project_id"] == nil || fields["type"] == nil {
		t.Errorf("fields = %v", body["fields"])
	}
}

func TestWidgets_CreateReturnsEntity(t *testing.T) {
	app := newTestApp(t)
	p := testutil.SeedProject(t, app.db, "user-a", "alpha")

	w := app.do("POST", "/api/widgets", tokenA, `{"project_id":"`+p.ID+`","type":"wall"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["project_id"] != p.ID || body["type"] != "wall" || body["config"] == nil {
		t.Errorf("body = %v", body)
	}

	w = app.do("POST", "/api/widgets", tokenB, `{"project_id":"`+p.ID+`","type":"wall"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign project status = %d, expected 404", w.Code)
	}
}

func TestProjects_PlanLimit(t *testing.T) {
	app := newTestApp(t)

	if w := app.do("POST", "/api/projects", tokenA, `{"name":"First"}`); w.Code != http.StatusCreated {
		t.Fatalf("first project status = %d body = %s", w.Code, w.Body.String())
	}
	w := app.do("POST", "/api/projects", tokenA, `{"name":"Second"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, expected 403", w.Code)
	}
	if msg, _ := decodeBody(t, w)["error"].(string); !strings.Contains(msg, "plan limit") {
		t.Errorf("error = %q", msg)
	}
}

func TestProjects_EmptyUpdate(t *testing.T) {
	app := newTestApp(t)
	p := testutil.SeedProject(t, app.db, "user-a", "alpha")

	w := app.do("PATCH", "/api/projects/"+p.ID, tokenA, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", w.Code)
	}
}

func TestProjects_ListIsolated(t *testing.T) {
	app := newTestApp(t)
	testutil.SeedProject(t, app.db, "user-a", "alpha")
	testutil.SeedProject(t, app.db, "user-b", "beta")

	w := app.do("GET", "/api/projects", tokenA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var items []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &items)
	if len(items) != 1 || items[0]["slug"] != "alpha" {
		t.Errorf("items = %v", items)
	}
	if _, ok := items[0]["testimonial_count"]; !ok {
		t.Error("testimonial_count missing")
	}
}

func TestProjects_LogoUploadWithoutStorage(t *testing.T) {
	app := newTestApp(t)
	p := testutil.SeedProject(t, app.db, "user-a", "alpha")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("logo", "logo.png")
	part.Write([]byte("png"))
	mw.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/projects/"+p.ID+"/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: auth.AccessCookie, Value: tokenA})
	app.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, expected 503", w.Code)
	}
}

func TestPublic_SubmitAndWidget(t *testing.T) {
	app := newTestApp(t)
	p := testutil.SeedProject(t, app.db, "user-a", "alpha")
	widget := testutil.SeedWidget(t, app.db, p.ID)

	w := app.do("POST", "/api/public/projects/alpha/testimonials", "",
		`{"name":"Grace","email":"grace@example.com","content":"Wonderful"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d body = %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["status"] != "pending" {
		t.Errorf("submission should be pending")
	}

	// Pending submissions are not public yet.
	w = app.do("GET", "/api/public/widgets/"+widget.ID, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("widget status = %d", w.Code)
	}
	if items, _ := decodeBody(t, w)["testimonials"].([]interface{}); len(items) != 0 {
		t.Errorf("testimonials = %v, expected none", items)
	}

	app.db.Model(&models.Testimonial{}).Where("project_id = ?", p.ID).Update("status", models.StatusApproved)
	w = app.do("GET", "/api/public/widgets/"+widget.ID, "", "")
	if strings.Contains(w.Body.String(), "grace@example.com") {
		t.Errorf("widget payload leaks author email: %s", w.Body.String())
	}
	if items, _ := decodeBody(t, w)["testimonials"].([]interface{}); len(items) != 1 {
		t.Errorf("testimonials = %d, expected 1", len(items))
	}
}

func TestPublic_SubmitValidation(t *testing.T) {
	app := newTestApp(t)
	testutil.SeedProject(t, app.db, "user-a", "alpha")

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing content", `{"name":"Grace"}`, http.StatusUnprocessableEntity},
		{"rating out of range", `{"name":"Grace","content":"Hi","rating":9}`, http.StatusUnprocessableEntity},
		{"wrong type", `{"name":42,"content":"Hi"}`, http.StatusUnprocessableEntity},
		{"malformed", `{"name":`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do("POST", "/api/public/projects/alpha/testimonials", "", tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, expected %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}

	if w := app.do("POST", "/api/public/projects/nope/testimonials", "", `{"name":"G","content":"Hi"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown slug status = %d", w.Code)
	}
}

func TestContact(t *testing.T) {
	app := newTestApp(t)

	if w := app.do("POST", "/api/contact", "", `{"name":"Ada","email":"ada@example.com","message":"Hello"}`); w.Code != http.StatusCreated {
		t.Errorf("status = %d", w.Code)
	}
	if w := app.do("POST", "/api/contact", "", `{"name":"","email":"nope","message":""}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid status = %d", w.Code)
	}
}

func TestAuth_LoginSetsCookies(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/api/auth/login", "", `{"email":"A@Example.com","password":"secret-password"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	cookies := map[string]string{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	if cookies[auth.AccessCookie] != tokenA || cookies[auth.RefreshCookie] != "refresh-a" {
		t.Errorf("cookies = %v", cookies)
	}

	var n int64
	app.db.Model(&models.Profile{}).Where("id = ?", "user-a").Count(&n)
	if n != 1 {
		t.Error("login should create the missing profile")
	}
}

func TestAuth_LoginErrors(t *testing.T) {
	app := newTestApp(t)

	app.provider.signInErr = auth.ErrInvalidCredentials
	if w := app.do("POST", "/api/auth/login", "", `{"email":"a@example.com","password":"x"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("invalid credentials status = %d", w.Code)
	}

	app.provider.signInErr = auth.ErrRateLimited
	if w := app.do("POST", "/api/auth/login", "", `{"email":"a@example.com","password":"x"}`); w.Code != http.StatusTooManyRequests {
		t.Errorf("rate limited status = %d", w.Code)
	}

	app.provider.signInErr = errors.New("upstream said: db connection string postgres://secret")
	w := app.do("POST", "/api/auth/login", "", `{"email":"a@example.com","password":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("provider failure status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("upstream detail leaked: %s", w.Body.String())
	}
}

func TestAuth_ForgotPasswordIsGeneric(t *testing.T) {
	app := newTestApp(t)

	ok := app.do("POST", "/api/auth/forgot-password", "", `{"email":"a@example.com"}`)
	app.provider.recoverErr = errors.New("user not found")
	missing := app.do("POST", "/api/auth/forgot-password", "", `{"email":"ghost@example.com"}`)

	if ok.Code != http.StatusOK || missing.Code != http.StatusOK {
		t.Fatalf("status = %d / %d", ok.Code, missing.Code)
	}
	if ok.Body.String() != missing.Body.String() {
		t.Errorf("responses differ: %s vs %s", ok.Body.String(), missing.Body.String())
	}
	if len(app.provider.recovered) != 2 {
		t.Errorf("recover calls = %v", app.provider.recovered)
	}
}

func TestAuth_MeAndLogout(t *testing.T) {
	app := newTestApp(t)

	w := app.do("GET", "/api/auth/me", tokenA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	body := decodeBody(t, w)
	user, _ := body["user"].(map[string]interface{})
	if user["id"] != "user-a" || body["profile"] == nil {
		t.Errorf("me = %v", body)
	}

	w = app.do("POST", "/api/auth/logout", tokenA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if len(app.provider.signedOut) != 1 || app.provider.signedOut[0] != tokenA {
		t.Errorf("signed out = %v", app.provider.signedOut)
	}
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s not cleared", c.Name)
		}
	}
}

func TestBilling_CheckoutDisabled(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/api/billing/checkout", tokenA, "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, expected 503", w.Code)
	}
}

func TestBilling_WebhookBadSignature(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/webhooks/stripe", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	app.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", w.Code)
	}
}

func TestUsage(t *testing.T) {
	app := newTestApp(t)
	testutil.SeedProject(t, app.db, "user-a", "alpha")

	w := app.do("GET", "/api/usage", tokenA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["plan"] != "free" {
		t.Errorf("plan = %v", body["plan"])
	}
}

func TestRobots(t *testing.T) {
	app := newTestApp(t)

	w := app.do("GET", "/robots.txt", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	text := w.Body.String()
	for _, line := range []string{
		"Allow: /\n", "Allow: /login", "Allow: /register", "Allow: /wall/",
		"Disallow: /dashboard\n", "Disallow: /projects\n", "Disallow: /billing\n",
		"Disallow: /api/", "Disallow: /f/", "Disallow: /forgot-password", "Disallow: /reset-password",
		"Sitemap: https://koe.so/sitemap.xml",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("robots.txt missing %q", line)
		}
	}
}

func TestRobotsText_CoversPrivateIndexPages(t *testing.T) {
	lines := strings.Split(RobotsText("https://koe.so"), "\n")
	disallowed := func(p string) bool {
		for _, l := range lines {
			if rule := strings.TrimPrefix(l, "Disallow: "); rule != l && strings.HasPrefix(p, rule) {
				return true
			}
		}
		return false
	}
	for _, p := range []string{"/dashboard", "/dashboard/settings", "/projects", "/projects/p1", "/billing", "/api/projects"} {
		if !disallowed(p) {
			t.Errorf("%s should be disallowed", p)
		}
	}
	for _, p := range []string{"/", "/login", "/wall/acme"} {
		if disallowed(p) {
			t.Errorf("%s should be crawlable", p)
		}
	}
}

func TestSitemap(t *testing.T) {
	app := newTestApp(t)
	testutil.SeedProject(t, app.db, "user-a", "alpha")

	w := app.do("GET", "/sitemap.xml", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"<urlset", "<loc>https://koe.so/</loc>", "<loc>https://koe.so/wall/alpha</loc>", "<lastmod>"} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q:\n%s", want, body)
		}
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	if w := app.do("GET", "/health", "", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
