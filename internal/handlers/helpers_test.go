package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/plan"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/internal/validation"
)

func TestFail_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", validation.FieldError("name", "is required"), http.StatusUnprocessableEntity},
		{"empty update", validation.ErrEmptyUpdate, http.StatusBadRequest},
		{"not found", fmt.Errorf("get project: %w", store.ErrNotFound), http.StatusNotFound},
		{"forbidden", store.ErrForbidden, http.StatusForbidden},
		{"conflict", store.ErrConflict, http.StatusConflict},
		{"plan limit", fmt.Errorf("%w: projects", plan.ErrLimitReached), http.StatusForbidden},
		{"storage disabled", services.ErrStorageDisabled, http.StatusServiceUnavailable},
		{"billing disabled", services.ErrBillingDisabled, http.StatusServiceUnavailable},
		{"already pro", services.ErrAlreadyPro, http.StatusConflict},
		{"bad signature", services.ErrInvalidSignature, http.StatusBadRequest},
		{"unknown", errors.New("dial tcp 10.0.0.3:5432: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("GET", "/test", nil)
			fail(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, expected %d", w.Code, tt.status)
			}
		})
	}
}

func TestFail_ValidationKeepsFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)

	fail(c, validation.FieldError("slug", "is already taken"))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != `{"error":"validation failed","fields":{"slug":["is already taken"]}}` {
		t.Errorf("body = %s", body)
	}
}
