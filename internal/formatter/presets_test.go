package formatter

import "testing"

func TestNewPresetRegistry_DefaultPresets(t *testing.T) {
	registry := NewPresetRegistry()
	presets := registry.List()

	expectedNames := []string{"compact", "detailed", "json", "count-only", "categories", "delivery"}
	if len(presets) != len(expectedNames) {
		t.Fatalf("Expected %d default presets, got %d", len(expectedNames), len(presets))
	}
	engine := NewTemplateEngine()
	for i, expected := range expectedNames {
		if presets[i].Name != expected {
			t.Errorf("Expected preset name %q at index %d, got %q", expected, i, presets[i].Name)
		}
		if err := engine.Validate(presets[i].Template); err != nil {
			t.Errorf("preset %s has invalid template: %v", presets[i].Name, err)
		}
	}
}

func TestPresetRegistry_GetAndRegister(t *testing.T) {
	registry := NewPresetRegistry()

	preset, err := registry.Get("count-only")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if preset.Template != "{{unread-count}}" {
		t.Errorf("template = %q", preset.Template)
	}

	if _, err := registry.Get("panes"); err == nil {
		t.Error("expected error for missing preset")
	}

	if err := registry.Register(Preset{Name: "", Template: "x"}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := registry.Register(Preset{Name: "x", Template: ""}); err == nil {
		t.Error("expected error for empty template")
	}

	if err := registry.Register(Preset{Name: "compact", Template: "{{total-count}}"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Register(Preset{Name: "mine", Template: "{{failed-count}}"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	list := registry.List()
	if list[0].Template != "{{total-count}}" || list[len(list)-1].Name != "mine" {
		t.Errorf("unexpected list after register: %+v", list)
	}
}

func TestRender(t *testing.T) {
	registry := NewPresetRegistry()
	engine := NewTemplateEngine()
	ctx := VariableContext{UnreadCount: 2, TotalCount: 4, ImportantCount: 1, LatestTitle: "Payment overdue"}

	got, err := Render(registry, engine, "compact", ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "[2] Payment overdue" {
		t.Errorf("Render(compact) = %q", got)
	}

	got, err = Render(registry, engine, "json", ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != `{"unread":2,"total":4,"important":1}` {
		t.Errorf("Render(json) = %q", got)
	}

	got, err = Render(registry, engine, "total {{total-count}}", ctx)
	if err != nil || got != "total 4" {
		t.Errorf("Render(literal) = %q, %v", got, err)
	}

	if _, err := Render(registry, engine, "{{bogus}}", ctx); err == nil {
		t.Error("expected error for unknown variable")
	}
}
