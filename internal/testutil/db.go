// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/koe-app/koe/internal/models"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database that lives for the
// duration of the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed migrating test database: %v", err)
	}
	return db
}

// SeedProfile inserts a profile with the given plan.
func SeedProfile(t testing.TB, db *gorm.DB, id, tier string) *models.Profile {
	t.Helper()
	p := &models.Profile{ID: id, Email: id + "@example.com", Plan: tier}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return p
}

// SeedProject inserts a project owned by userID.
func SeedProject(t testing.TB, db *gorm.DB, userID, slug string) *models.Project {
	t.Helper()
	p := &models.Project{UserID: userID, Name: slug, Slug: slug}
	p.FormConfig = datatypes.NewJSONType(models.DefaultFormConfig())
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

// SeedTestimonial inserts a testimonial with the given status.
func SeedTestimonial(t testing.TB, db *gorm.DB, projectID string, status models.TestimonialStatus) *models.Testimonial {
	t.Helper()
	tm := &models.Testimonial{
		ProjectID:   projectID,
		AuthorName:  "Ada",
		AuthorEmail: "ada@example.com",
		Content:     "Lovely product",
		Rating:      5,
		Status:      status,
	}
	if err := db.Create(tm).Error; err != nil {
		t.Fatalf("seed testimonial: %v", err)
	}
	return tm
}

// SeedWidget inserts a widget with the default configuration.
func SeedWidget(t testing.TB, db *gorm.DB, projectID string) *models.Widget {
	t.Helper()
	w := &models.Widget{ProjectID: projectID, Type: models.WidgetWall}
	w.Config = datatypes.NewJSONType(models.DefaultWidgetConfig())
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("seed widget: %v", err)
	}
	return w
}
