package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// VariableContext contains all data needed for template variable resolution.
type VariableContext struct {
	UnreadCount    int
	TotalCount     int
	ReadCount      int
	ImportantCount int
	FailedCount    int

	// Category-specific unread counts
	DealCount    int
	PaymentCount int
	TaskCount    int

	LatestTitle   string
	LatestMessage string

	HasUnread    bool
	HasImportant bool

	SourceList string
}

// NewVariableContext aggregates feed items into a variable context. Latest
// refers to the newest unread item, or the newest item when all are read.
func NewVariableContext(items []domain.FeedItem) VariableContext {
	ctx := VariableContext{TotalCount: len(items)}
	sources := map[string]bool{}
	var latest *domain.FeedItem
	var latestUnread *domain.FeedItem

	for i := range items {
		item := &items[i]
		if item.Source != "" {
			sources[item.Source] = true
		}
		if item.Important {
			ctx.ImportantCount++
		}
		if item.DeliveryStatus == domain.DeliveryFailed {
			ctx.FailedCount++
		}
		if latest == nil || item.CreatedAt.After(latest.CreatedAt) {
			latest = item
		}
		if item.Read {
			ctx.ReadCount++
			continue
		}
		ctx.UnreadCount++
		switch item.Category {
		case domain.CategoryDeal:
			ctx.DealCount++
		case domain.CategoryPayment:
			ctx.PaymentCount++
		case domain.CategoryTask:
			ctx.TaskCount++
		}
		if latestUnread == nil || item.CreatedAt.After(latestUnread.CreatedAt) {
			latestUnread = item
		}
	}

	if latestUnread != nil {
		latest = latestUnread
	}
	if latest != nil {
		ctx.LatestTitle = latest.Title
		ctx.LatestMessage = latest.Message
	}
	ctx.HasUnread = ctx.UnreadCount > 0
	ctx.HasImportant = ctx.ImportantCount > 0

	names := make([]string, 0, len(sources))
	for s := range sources {
		names = append(names, s)
	}
	sort.Strings(names)
	ctx.SourceList = strings.Join(names, ",")
	return ctx
}

// VariableResolver resolves template variables to their values.
type VariableResolver interface {
	// Resolve returns the string value for a given variable name and context.
	Resolve(varName string, ctx VariableContext) (string, error)
}

type variableResolver struct{}

// NewVariableResolver creates a new variable resolver instance.
func NewVariableResolver() VariableResolver {
	return &variableResolver{}
}

var variables = map[string]func(VariableContext) string{
	"unread-count":    func(c VariableContext) string { return strconv.Itoa(c.UnreadCount) },
	"total-count":     func(c VariableContext) string { return strconv.Itoa(c.TotalCount) },
	"read-count":      func(c VariableContext) string { return strconv.Itoa(c.ReadCount) },
	"important-count": func(c VariableContext) string { return strconv.Itoa(c.ImportantCount) },
	"failed-count":    func(c VariableContext) string { return strconv.Itoa(c.FailedCount) },
	"deal-count":      func(c VariableContext) string { return strconv.Itoa(c.DealCount) },
	"payment-count":   func(c VariableContext) string { return strconv.Itoa(c.PaymentCount) },
	"task-count":      func(c VariableContext) string { return strconv.Itoa(c.TaskCount) },
	"latest-title":    func(c VariableContext) string { return c.LatestTitle },
	"latest-message":  func(c VariableContext) string { return c.LatestMessage },
	"has-unread":      func(c VariableContext) string { return strconv.FormatBool(c.HasUnread) },
	"has-important":   func(c VariableContext) string { return strconv.FormatBool(c.HasImportant) },
	"source-list":     func(c VariableContext) string { return c.SourceList },
}

// Resolve returns the string value for a variable from the context.
func (vr *variableResolver) Resolve(varName string, ctx VariableContext) (string, error) {
	fn, ok := variables[varName]
	if !ok {
		return "", fmt.Errorf("unknown variable: %s", varName)
	}
	return fn(ctx), nil
}

// IsKnownVariable reports whether name can be used in a template.
func IsKnownVariable(name string) bool {
	_, ok := variables[name]
	return ok
}

// VariableNames lists the known variables sorted by name.
func VariableNames() []string {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
