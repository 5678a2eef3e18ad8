// Package validation turns raw request bodies into typed, normalized input
// or a field-keyed set of messages.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	SlugPattern       = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,48}[a-z0-9]$`)
	HexColorPattern   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	fontFamilyPattern = regexp.MustCompile(`^[A-Za-z0-9 ,'"-]+$`)
)

func IsValidSlug(s string) bool { return SlugPattern.MatchString(s) }

func IsValidHexColor(s string) bool { return HexColorPattern.MatchString(s) }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
		return IsValidSlug(fl.Field().String())
	})
	mustRegister(v, "brandcolor", func(fl validator.FieldLevel) bool {
		return IsValidHexColor(fl.Field().String())
	})
	mustRegister(v, "fontfamily", func(fl validator.FieldLevel) bool {
		return fontFamilyPattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// decode reads a JSON object into dst. Malformed bodies and type mismatches
// come back as *Errors.
func decode(raw []byte, dst interface{}) error {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return FieldError("body", "is required")
	}
	if body[0] != '{' {
		return FieldError("body", "must be a JSON object")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return FieldError(field, "must be "+kindName(typeErr.Type))
		}
		return FieldError("body", "must be valid JSON")
	}
	return nil
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "a list"
	case reflect.Struct, reflect.Map:
		return "an object"
	}
	return "a valid value"
}

// collect records struct validation failures under prefix.
func (e *Errors) collect(prefix string, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		e.Add(strings.TrimSuffix(prefix, "."), err.Error())
		return
	}
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		e.Add(prefix+ns, message(fe))
	}
}

// check validates a single value against tag and records failures as field.
func (e *Errors) check(field string, value interface{}, tag string) {
	err := validate.Var(value, tag)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		e.Add(field, "is invalid")
		return
	}
	for _, fe := range verrs {
		e.Add(field, message(fe))
	}
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "http_url":
		return "must be a valid http(s) URL"
	case "slug":
		return "must be 3-50 lowercase letters, digits or hyphens, not starting or ending with a hyphen"
	case "brandcolor":
		return "must be a hex color like #6366f1"
	case "fontfamily":
		return "contains unsupported characters"
	}
	return "is invalid"
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
