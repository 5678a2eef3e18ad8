package validation

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyUpdate is returned when a partial update carries no fields.
var ErrEmptyUpdate = errors.New("at least one field must be provided")

// Errors maps field names to their validation messages. Nested fields use
// dotted keys such as "config.max_items".
type Errors struct {
	Fields map[string][]string
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Errors) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether field has at least one message.
func (e *Errors) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Err returns e, or nil when nothing was recorded.
func (e *Errors) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// FieldError builds a single-field validation error.
func FieldError(field, msg string) error {
	e := &Errors{}
	e.Add(field, msg)
	return e
}
