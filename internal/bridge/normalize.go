package bridge

import (
	"strconv"
	"strings"
)

// payload is a decoded push message. Producers nest the entity fields under
// "data" or "payload" for some event categories and put them at the root for
// others; lookups search the root first.
type payload map[string]any

func (p payload) layers() []map[string]any {
	out := []map[string]any{p}
	for _, name := range []string{"data", "payload"} {
		if nested, ok := p[name].(map[string]any); ok {
			out = append(out, nested)
		}
	}
	return out
}

// str returns the first non-empty trimmed string found under the camel-case
// name, then the snake-case name, layer by layer.
func (p payload) str(camel, snake string) string {
	for _, layer := range p.layers() {
		if v := stringValue(layer[camel]); v != "" {
			return v
		}
		if snake != "" {
			if v := stringValue(layer[snake]); v != "" {
				return v
			}
		}
	}
	return ""
}

// number returns the first numeric value found, accepting numeric strings.
func (p payload) number(camel, snake string) (float64, bool) {
	for _, layer := range p.layers() {
		for _, name := range []string{camel, snake} {
			if name == "" {
				continue
			}
			switch v := layer[name].(type) {
			case float64:
				return v, true
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}

func (p payload) boolean(name string) bool {
	for _, layer := range p.layers() {
		if v, ok := layer[name].(bool); ok {
			return v
		}
	}
	return false
}

func (p payload) list(name string) []string {
	for _, layer := range p.layers() {
		list, ok := layer[name].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s := stringValue(v); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringValue(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// numeric ids
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// NormalizeEntityRef returns the deal reference of a payload: "dealId" when
// it is non-empty after trimming, else "deal_id", else "".
func NormalizeEntityRef(p map[string]any) string {
	return payload(p).str("dealId", "deal_id")
}
