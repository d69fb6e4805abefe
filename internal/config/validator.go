package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks a loaded configuration.
type Validator interface {
	Validate(cfg *Config) error
}

type structValidator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator driven by the struct tags on Config.
func NewValidator() Validator {
	return &structValidator{validate: validator.New()}
}

func (v *structValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	err := v.validate.Struct(cfg)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validation error: %w", err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, e := range fieldErrs {
			msgs = append(msgs, formatValidationError(e))
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
	}

	if cfg.Push.RateLimit > 0 && cfg.Push.Burst < 1 {
		return fmt.Errorf("configuration validation failed:\n  - push.burst must be at least 1 when push.rate_limit is set")
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", field, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", field, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", field, e.Tag(), e.Value())
	}
}

// formatFieldPath turns "Config.Push.OnError" into "push.on_error".
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return namespace
	}
	out := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		out = append(out, camelToSnake(p))
	}
	return strings.Join(out, ".")
}

func camelToSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if i > 0 && upper {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteRune('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
