package config

import (
	"os"
	"strings"
)

// MissingError is returned when required configuration is absent or blank.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Names, ", ")
}

// Lookup returns the named environment value with surrounding whitespace
// and newlines removed. Hosting platforms sometimes inject trailing newlines.
func Lookup(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// Required returns the trimmed value of name or a *MissingError when it is
// unset or blank.
func Required(name string) (string, error) {
	v := Lookup(name)
	if v == "" {
		return "", &MissingError{Names: []string{name}}
	}
	return v, nil
}
