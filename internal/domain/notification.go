package domain

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the user-facing weight of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a Severity.
func ParseSeverity(value string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", value)
	}
	return s, nil
}

// Notification sources.
const (
	SourceCRM           = "crm"
	SourceNotifications = "notifications"
	SourcePayments      = "payments"
	SourceLocal         = "local"
)

// Notification is an entry of the ambient notification log (toasts).
type Notification struct {
	ID        string    `json:"id" yaml:"id"`
	Message   string    `json:"message" yaml:"message"`
	Severity  Severity  `json:"severity" yaml:"severity"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	Source    string    `json:"source" yaml:"source"`
	Read      bool      `json:"read" yaml:"read"`
	Important bool      `json:"important" yaml:"important"`
}
