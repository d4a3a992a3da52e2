// Package formatter provides template parsing, variable resolution, and preset management
// for rendering one-line feed status summaries from customizable templates.
package formatter

import (
	"fmt"
	"regexp"
	"strings"
)

// TemplateEngine provides template parsing and variable substitution.
type TemplateEngine interface {
	// Parse returns a list of variables found in the template.
	Parse(template string) ([]string, error)

	// Substitute replaces variables in the template with values from the context.
	Substitute(template string, ctx VariableContext) (string, error)

	// Validate checks the template syntax and that every variable is known.
	Validate(template string) error
}

type templateEngine struct {
	variablePattern *regexp.Regexp
	resolver        VariableResolver
}

// NewTemplateEngine creates a new template engine instance.
func NewTemplateEngine() TemplateEngine {
	return &templateEngine{
		variablePattern: regexp.MustCompile(`\{\{([a-z0-9-]+)\}\}`),
		resolver:        NewVariableResolver(),
	}
}

// Parse identifies all variables in a template string using {{variable-name}} syntax.
// Returns a list of variable names found, without duplicates.
func (te *templateEngine) Parse(template string) ([]string, error) {
	variables := []string{}
	if template == "" {
		return variables, nil
	}

	seen := make(map[string]bool)
	for _, match := range te.variablePattern.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if !seen[name] {
			variables = append(variables, name)
			seen[name] = true
		}
	}
	return variables, nil
}

// Substitute replaces all variables in the template with values from the context.
// Unknown variables fail the whole substitution.
func (te *templateEngine) Substitute(template string, ctx VariableContext) (string, error) {
	var resolveErr error
	result := te.variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		if resolveErr != nil {
			return match
		}
		name := te.variablePattern.FindStringSubmatch(match)[1]
		value, err := te.resolver.Resolve(name, ctx)
		if err != nil {
			resolveErr = err
			return match
		}
		return value
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return result, nil
}

// Validate checks delimiters and variable names.
func (te *templateEngine) Validate(template string) error {
	openCount := strings.Count(template, "{{")
	closeCount := strings.Count(template, "}}")
	if openCount != closeCount {
		return fmt.Errorf("mismatched variable delimiters: %d opens, %d closes", openCount, closeCount)
	}

	if len(te.variablePattern.FindAllString(template, -1)) != openCount {
		return fmt.Errorf("invalid variable name in template %q", template)
	}
	variables, err := te.Parse(template)
	if err != nil {
		return err
	}
	for _, name := range variables {
		if !IsKnownVariable(name) {
			return fmt.Errorf("unknown variable: %s (available: %s)", name, strings.Join(VariableNames(), ", "))
		}
	}
	return nil
}
