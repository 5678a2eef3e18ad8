package main

import (
	"net/http"
	"time"

	"github.com/koe-app/koe/internal/auth"
	"github.com/koe-app/koe/internal/config"
	"github.com/koe-app/koe/internal/handlers"
	"github.com/koe-app/koe/internal/models"
	"github.com/koe-app/koe/internal/plan"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/internal/storage"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/pkg/logger"
	"gorm.io/gorm"
)

const authTimeout = 10 * time.Second

// appServices holds the wired handlers and the session plumbing routes need.
type appServices struct {
	cfg      *config.Config
	db       *gorm.DB
	sessions *auth.SessionManager
	profiles *auth.ProfileEnsurer

	authHandler        *handlers.AuthHandler
	projectHandler     *handlers.ProjectHandler
	widgetHandler      *handlers.WidgetHandler
	testimonialHandler *handlers.TestimonialHandler
	publicHandler      *handlers.PublicHandler
	billingHandler     *handlers.BillingHandler
	seoHandler         *handlers.SEOHandler
	healthHandler      *handlers.HealthHandler
}

// bootstrap connects the database and builds every service and handler.
func bootstrap(cfg *config.Config) (*appServices, error) {
	db, err := models.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}
	return newAppServices(cfg, db)
}

// newAppServices builds the services and handlers on an open database.
func newAppServices(cfg *config.Config, db *gorm.DB) (*appServices, error) {
	s := store.New(db, cfg.Supabase.ServiceRoleKey)
	provider := auth.NewSupabaseProvider(cfg.Supabase.URL, cfg.Supabase.AnonKey, &http.Client{Timeout: authTimeout})
	sessions := auth.NewSessionManager(provider, cfg.SecureCookies())
	profiles := auth.NewProfileEnsurer(s)
	policy := plan.NewPolicy(cfg.Plans.FreeProjects, cfg.Plans.FreeTestimonials)

	var logos storage.LogoStore
	if cfg.Storage.Enabled() {
		client, err := storage.NewMinIOClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		logos = client
		logger.Info().Str("bucket", cfg.Storage.Bucket).Msg("Logo storage enabled")
	} else {
		logger.Warn().Msg("Logo storage not configured, uploads are disabled")
	}

	var gateway services.StripeGateway
	if cfg.Billing.Enabled() {
		gateway = services.NewStripeGateway(cfg.Billing.StripeSecretKey)
	} else {
		logger.Warn().Msg("Stripe not configured, billing is disabled")
	}

	projects := services.NewProjectService(s, policy, logos)
	widgets := services.NewWidgetService(s)
	testimonials := services.NewTestimonialService(s, policy)
	billing := services.NewBillingService(s, gateway, services.BillingConfig{
		PriceID:        cfg.Billing.ProPriceID,
		WebhookSecret:  cfg.Billing.StripeWebhookSecret,
		AppURL:         cfg.Server.AppURL,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
	})

	return &appServices{
		cfg:      cfg,
		db:       db,
		sessions: sessions,
		profiles: profiles,

		authHandler:        handlers.NewAuthHandler(sessions, profiles, s, cfg.Server.AppURL),
		projectHandler:     handlers.NewProjectHandler(projects, widgets, testimonials),
		widgetHandler:      handlers.NewWidgetHandler(widgets),
		testimonialHandler: handlers.NewTestimonialHandler(testimonials),
		publicHandler:      handlers.NewPublicHandler(services.NewPublicService(s), testimonials, services.NewContactService(s)),
		billingHandler:     handlers.NewBillingHandler(billing, services.NewUsageService(s, policy)),
		seoHandler:         handlers.NewSEOHandler(services.NewSitemapService(s, cfg.Supabase.ServiceRoleKey, cfg.Server.AppURL), cfg.Server.AppURL),
		healthHandler:      handlers.NewHealthHandler(db),
	}, nil
}

// shutdown releases the database pool.
func (a *appServices) shutdown() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database")
	}
}
