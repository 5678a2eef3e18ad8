package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/pkg/logger"
)

const maxAuditBody = 2000

// AuditLog writes one structured log line per tenant write operation
// (POST/PUT/PATCH/DELETE) with sensitive body fields masked.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "PATCH" && method != "DELETE" {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") {
			head, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody+1))
			c.Request.Body = readCloser{io.MultiReader(bytes.NewReader(head), c.Request.Body), c.Request.Body}
			truncated := len(head) > maxAuditBody
			if truncated {
				head = head[:maxAuditBody]
			}
			bodySnippet = string(head)
			if truncated {
				bodySnippet += "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		event := logger.Info()
		if status >= 400 {
			event = logger.Warn()
		}
		event.
			Bool("audit", true).
			Str("user_id", GetUserID(c)).
			Str("module", module).
			Str("action", action).
			Str("method", method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Str("body", bodySnippet).
			Msg(formatAuditMessage(method, c.Request.URL.Path, status))
	}
}

// readCloser replays the peeked head of a body and closes the original.
type readCloser struct {
	io.Reader
	io.Closer
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/projects/:id" + "PATCH" gives module="projects", action="update".
func parseRouteInfo(fullPath, method string) (module, action string) {
	p := strings.TrimPrefix(fullPath, "/api/")
	module = strings.SplitN(p, "/", 2)[0]
	if module == "" {
		module = "unknown"
	}

	switch method {
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return module, action
}

func formatAuditMessage(method, path string, status int) string {
	outcome := "failed"
	if status >= 200 && status < 300 {
		outcome = "ok"
	}
	return "audit " + method + " " + path + " " + outcome
}

var sensitiveKeys = map[string]bool{
	"password":      true,
	"access_token":  true,
	"refresh_token": true,
	"token":         true,
	"secret":        true,
	"email":         true,
	"author_email":  true,
}

// maskSensitiveFields replaces sensitive values in a JSON body. Bodies that
// do not parse (for example truncated ones) are masked textually.
func maskSensitiveFields(body string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err == nil {
		if out, err := json.Marshal(maskValue(v)); err == nil {
			return string(out)
		}
	}
	for key := range sensitiveKeys {
		body = maskJSONValue(body, key)
	}
	return body
}

func maskValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, inner := range t {
			if sensitiveKeys[strings.ToLower(k)] {
				t[k] = "***"
				continue
			}
			t[k] = maskValue(inner)
		}
	case []interface{}:
		for i := range t {
			t[i] = maskValue(t[i])
		}
	}
	return v
}

// maskJSONValue masks the string value following every "key": in body.
func maskJSONValue(body, key string) string {
	needle := "\"" + key + "\""
	var b strings.Builder
	for {
		idx := strings.Index(strings.ToLower(body), needle)
		if idx == -1 {
			b.WriteString(body)
			return b.String()
		}
		cut := idx + len(needle)
		b.WriteString(body[:cut])
		body = body[cut:]

		i := 0
		for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == ':') {
			i++
		}
		if i >= len(body) || body[i] != '"' {
			continue
		}
		end := strings.IndexByte(body[i+1:], '"')
		if end == -1 {
			b.WriteString(body[:i+1] + "***")
			return b.String()
		}
		b.WriteString(body[:i+1] + "***")
		body = body[i+1+end:]
	}
}
