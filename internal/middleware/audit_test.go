package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMaskSensitiveFields(t *testing.T) {
	got := maskSensitiveFields(`{"email":"ada@example.com","password":"hunter22","name":"Ada","nested":{"token":"abc"}}`)
	for _, leaked := range []string{"ada@example.com", "hunter22", "abc"} {
		if strings.Contains(got, leaked) {
			t.Errorf("masked body still contains %q: %s", leaked, got)
		}
	}
	if !strings.Contains(got, `"name":"Ada"`) {
		t.Errorf("non-sensitive fields should be kept: %s", got)
	}
}

func TestMaskSensitiveFields_Truncated(t *testing.T) {
	got := maskSensitiveFields(`{"password": "hunter22", "name": "Ada", "email":"ada@exa`)
	if strings.Contains(got, "hunter22") || strings.Contains(got, "ada@exa") {
		t.Errorf("truncated body not masked: %s", got)
	}
}

func TestParseRouteInfo(t *testing.T) {
	tests := []struct {
		path, method   string
		module, action string
	}{
		{"/api/projects/:id", "PATCH", "projects", "update"},
		{"/api/widgets", "POST", "widgets", "create"},
		{"/api/testimonials/:id", "DELETE", "testimonials", "delete"},
		{"", "POST", "unknown", "create"},
	}
	for _, tt := range tests {
		m, a := parseRouteInfo(tt.path, tt.method)
		if m != tt.module || a != tt.action {
			t.Errorf("parseRouteInfo(%q, %q) = %q, %q", tt.path, tt.method, m, a)
		}
	}
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestAuditLog_DoesNotBufferWholeBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	payload := append([]byte(`{"name":"`), bytes.Repeat([]byte("a"), 5<<20)...)
	payload = append(payload, []byte(`"}`)...)
	body := &countingReader{r: bytes.NewReader(payload)}

	var consumedBeforeHandler int
	var received int
	router := gin.New()
	router.Use(AuditLog())
	router.PATCH("/api/projects/:id", func(c *gin.Context) {
		consumedBeforeHandler = body.n
		b, _ := io.ReadAll(c.Request.Body)
		received = len(b)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/api/projects/p1", io.NopCloser(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if consumedBeforeHandler > maxAuditBody+1 {
		t.Errorf("consumed %d bytes before the handler ran, expected at most %d", consumedBeforeHandler, maxAuditBody+1)
	}
	if received != len(payload) {
		t.Errorf("handler received %d bytes, expected %d", received, len(payload))
	}
}

func TestAuditLog_SmallBodyIntact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got string
	router := gin.New()
	router.Use(AuditLog())
	router.POST("/api/widgets", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		got = string(b)
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/widgets", strings.NewReader(`{"type":"wall"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if got != `{"type":"wall"}` {
		t.Errorf("handler body = %q", got)
	}
}
