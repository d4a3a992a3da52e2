package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cristianoliveira/crmsync/internal/colors"
	"golang.org/x/text/currency"
)

// Validator validates and normalizes a configuration value.
// Returns the normalized value and an error if validation fails.
type Validator func(key, value, defaultValue string) (normalized string, err error)

// validatorRegistry manages the set of registered validators.
type validatorRegistry struct {
	mu         sync.RWMutex
	validators map[string]Validator
}

// registry is the global validator registry.
var registry = &validatorRegistry{
	validators: make(map[string]Validator),
}

// RegisterValidator registers a validator for a configuration key.
// Panics if a validator is already registered for the key.
func RegisterValidator(key string, validator Validator) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.validators[key]; exists {
		panic(fmt.Sprintf("validator already registered for key: %s", key))
	}
	registry.validators[key] = validator
}

// getValidator returns the validator for a key, or nil if not registered.
func getValidator(key string) Validator {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.validators[key]
}

// PositiveIntValidator returns a validator that ensures a value is a positive integer.
func PositiveIntValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			colors.Warning(fmt.Sprintf("invalid %s value '%s': must be a positive integer, using default: %s", key, value, defaultValue))
			return defaultValue, nil
		}
		return value, nil
	}
}

// EnumValidator returns a validator that ensures a value is one of the allowed enum values.
func EnumValidator(allowed map[string]bool) Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		valueLower := strings.ToLower(value)
		if !allowed[valueLower] {
			colors.Warning(fmt.Sprintf("invalid %s value '%s': must be one of: %s; using default: %s", key, value, allowedValues(allowed), defaultValue))
			return defaultValue, nil
		}
		return valueLower, nil
	}
}

// BoolValidator returns a validator that normalizes and validates boolean values.
// Returns a shared validator instance for all boolean keys.
func BoolValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		normalized := normalizeBool(value)
		if normalized != "true" && normalized != "false" {
			colors.Warning(fmt.Sprintf("invalid boolean value for %s: '%s', must be one of: 1, true, yes, on, 0, false, no, off; using default: %s", key, value, defaultValue))
			return defaultValue, nil
		}
		return normalized, nil
	}
}

// URLValidator validates absolute http(s) or ws(s) URLs.
// When allowEmpty is true, an empty value is kept (the feature it configures stays off).
// Extra literal values (such as "mock") are accepted verbatim.
func URLValidator(allowEmpty bool, literals ...string) Validator {
	return func(key, value, defaultValue string) (string, error) {
		value = strings.TrimSpace(value)
		if value == "" {
			if allowEmpty {
				return value, nil
			}
			return defaultValue, nil
		}
		for _, lit := range literals {
			if strings.EqualFold(value, lit) {
				return lit, nil
			}
		}
		u, err := url.Parse(value)
		if err != nil || u.Host == "" {
			colors.Warning(fmt.Sprintf("invalid URL for %s: '%s'; using default: %s", key, value, defaultValue))
			return defaultValue, nil
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
			return strings.TrimRight(value, "/"), nil
		default:
			colors.Warning(fmt.Sprintf("unsupported URL scheme for %s: '%s'; using default: %s", key, u.Scheme, defaultValue))
			return defaultValue, nil
		}
	}
}

// CurrencyValidator validates ISO 4217 currency codes.
func CurrencyValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		unit, err := currency.ParseISO(strings.TrimSpace(value))
		if err != nil {
			colors.Warning(fmt.Sprintf("invalid currency for %s: '%s'; using default: %s", key, value, defaultValue))
			return defaultValue, nil
		}
		return unit.String(), nil
	}
}

// initValidators registers all configuration validators.
func initValidators() {
	positiveIntValidator := PositiveIntValidator()
	RegisterValidator("api_timeout_seconds", positiveIntValidator)
	RegisterValidator("highlight_seconds", positiveIntValidator)
	RegisterValidator("notification_log_limit", positiveIntValidator)

	RegisterValidator("api_base_url", URLValidator(false, MockBaseURL))
	streamURLValidator := URLValidator(true)
	RegisterValidator("crm_stream_url", streamURLValidator)
	RegisterValidator("notifications_stream_url", streamURLValidator)
	RegisterValidator("payments_stream_url", streamURLValidator)

	RegisterValidator("default_currency", CurrencyValidator())
	RegisterValidator("output_format", EnumValidator(map[string]bool{
		"simple": true, "table": true, "compact": true, "json": true, "yaml": true,
	}))

	boolValidator := BoolValidator()
	RegisterValidator("debug", boolValidator)
	RegisterValidator("offline", boolValidator)

	RegisterValidator("hooks_failure_mode", EnumValidator(map[string]bool{"abort": true, "warn": true, "ignore": true}))
	RegisterValidator("hooks_async", boolValidator)
	RegisterValidator("hooks_async_timeout_seconds", positiveIntValidator)
	RegisterValidator("hooks_max_async", positiveIntValidator)

	// Logging validators
	RegisterValidator("logging_enabled", boolValidator)
	RegisterValidator("logging_console", boolValidator)
	RegisterValidator("logging_level", EnumValidator(map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}))
	RegisterValidator("logging_max_files", positiveIntValidator)
}

// normalizeBool converts various boolean representations to "true"/"false".
func normalizeBool(val string) string {
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return "true"
	case "0", "false", "no", "off":
		return "false"
	default:
		// If invalid, return as-is; validation will fix it.
		return val
	}
}

// allowedValues returns a comma-separated string of allowed values.
func allowedValues(allowed map[string]bool) string {
	values := make([]string, 0, len(allowed))
	for k := range allowed {
		values = append(values, k)
	}
	// Sort for consistent output
	sort.Strings(values)
	return strings.Join(values, ", ")
}
