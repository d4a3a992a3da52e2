package formatter

import "fmt"

// Preset represents a template preset with name, template string, and description.
type Preset struct {
	Name        string
	Template    string
	Description string
}

// PresetRegistry manages template presets.
type PresetRegistry interface {
	// Get returns a preset by name.
	Get(name string) (*Preset, error)

	// List returns all available presets.
	List() []Preset

	// Register adds a new preset.
	Register(preset Preset) error
}

type presetRegistry struct {
	presets map[string]Preset
	order   []string
}

// NewPresetRegistry creates a new preset registry with all default presets.
func NewPresetRegistry() PresetRegistry {
	registry := &presetRegistry{
		presets: make(map[string]Preset),
	}
	for _, preset := range defaultPresets {
		_ = registry.Register(preset)
	}
	return registry
}

var defaultPresets = []Preset{
	{
		Name:        "compact",
		Template:    "[{{unread-count}}] {{latest-title}}",
		Description: "Unread count and title of the latest unread item",
	},
	{
		Name:        "detailed",
		Template:    "{{unread-count}} unread, {{important-count}} important | Latest: {{latest-title}}",
		Description: "Counts and the latest unread item",
	},
	{
		Name:        "json",
		Template:    `{"unread":{{unread-count}},"total":{{total-count}},"important":{{important-count}}}`,
		Description: "JSON counts for programmatic consumption",
	},
	{
		Name:        "count-only",
		Template:    "{{unread-count}}",
		Description: "Only unread count",
	},
	{
		Name:        "categories",
		Template:    "deals:{{deal-count}} payments:{{payment-count}} tasks:{{task-count}}",
		Description: "Unread counts per category",
	},
	{
		Name:        "delivery",
		Template:    "Failed: {{failed-count}} | Sources: {{source-list}}",
		Description: "Failed deliveries and active sources",
	},
}

// Get returns a preset by name, or an error if not found.
func (pr *presetRegistry) Get(name string) (*Preset, error) {
	preset, ok := pr.presets[name]
	if !ok {
		return nil, fmt.Errorf("preset not found: %s", name)
	}
	return &preset, nil
}

// List returns all available presets in registration order.
func (pr *presetRegistry) List() []Preset {
	result := make([]Preset, 0, len(pr.order))
	for _, name := range pr.order {
		result = append(result, pr.presets[name])
	}
	return result
}

// Register adds a new preset or overwrites an existing one.
func (pr *presetRegistry) Register(preset Preset) error {
	if preset.Name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	if preset.Template == "" {
		return fmt.Errorf("preset template cannot be empty")
	}

	if _, exists := pr.presets[preset.Name]; !exists {
		pr.order = append(pr.order, preset.Name)
	}
	pr.presets[preset.Name] = preset
	return nil
}

// Render resolves nameOrTemplate as a preset name first and otherwise as a
// literal template, then substitutes ctx into it.
func Render(registry PresetRegistry, engine TemplateEngine, nameOrTemplate string, ctx VariableContext) (string, error) {
	template := nameOrTemplate
	if preset, err := registry.Get(nameOrTemplate); err == nil {
		template = preset.Template
	}
	if err := engine.Validate(template); err != nil {
		return "", err
	}
	return engine.Substitute(template, ctx)
}
