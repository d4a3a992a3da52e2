package formatter

import (
	"reflect"
	"strings"
	"testing"
)

func TestTemplateEngine_Parse(t *testing.T) {
	engine := NewTemplateEngine()

	tests := []struct {
		name     string
		template string
		want     []string
	}{
		{name: "empty template", template: "", want: []string{}},
		{name: "no variables", template: "Hello world", want: []string{}},
		{name: "single variable", template: "Count: {{unread-count}}", want: []string{"unread-count"}},
		{
			name:     "multiple different variables",
			template: "{{unread-count}} unread, {{read-count}} read",
			want:     []string{"unread-count", "read-count"},
		},
		{name: "duplicate variables", template: "{{unread-count}} and {{unread-count}}", want: []string{"unread-count"}},
		{name: "uppercase is not a variable", template: "{{Unread}}", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Parse(tt.template)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTemplateEngine_Substitute(t *testing.T) {
	engine := NewTemplateEngine()
	ctx := VariableContext{UnreadCount: 3, ImportantCount: 1, LatestTitle: "Deal moved", HasUnread: true}

	got, err := engine.Substitute("[{{unread-count}}] {{latest-title}} {{has-unread}} {{unread-count}}", ctx)
	if err != nil {
		t.Fatalf("Substitute() error = %v", err)
	}
	if want := "[3] Deal moved true 3"; got != want {
		t.Errorf("Substitute() = %q, want %q", got, want)
	}

	if _, err := engine.Substitute("{{nope}}", ctx); err == nil || !strings.Contains(err.Error(), "unknown variable: nope") {
		t.Errorf("Substitute() error = %v, want unknown variable", err)
	}

	got, err = engine.Substitute("", ctx)
	if err != nil || got != "" {
		t.Errorf("Substitute(\"\") = %q, %v", got, err)
	}
}

func TestTemplateEngine_Validate(t *testing.T) {
	engine := NewTemplateEngine()

	tests := []struct {
		name     string
		template string
		wantErr  string
	}{
		{name: "valid", template: "{{unread-count}} {{unread-count}}"},
		{name: "plain text", template: "hello"},
		{name: "unclosed", template: "{{unread-count", wantErr: "mismatched variable delimiters"},
		{name: "bad name", template: "{{Unread}}", wantErr: "invalid variable name"},
		{name: "unknown", template: "{{pane-list}}", wantErr: "unknown variable: pane-list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Validate(tt.template)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
