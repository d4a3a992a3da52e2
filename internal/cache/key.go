package cache

import (
	"sort"
	"strings"
)

// Key identifies a cache entry: an entity kind plus serialized query parameters.
// Two keys with the same kind and params address the same entry.
type Key struct {
	Kind   string
	Params string
}

// NewKey builds a key from a kind and zero or more parameter parts.
func NewKey(kind string, params ...string) Key {
	return Key{Kind: kind, Params: strings.Join(params, "/")}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Kind
	}
	return k.Kind + ":" + k.Params
}

// Matcher selects cache entries by key.
type Matcher func(Key) bool

// MatchKind matches every entry of the given kind, whatever its params.
func MatchKind(kind string) Matcher {
	return func(k Key) bool { return k.Kind == kind }
}

// MatchKey matches exactly one key.
func MatchKey(key Key) Matcher {
	return func(k Key) bool { return k == key }
}

// MatchKeys matches any of the given keys.
func MatchKeys(keys ...Key) Matcher {
	set := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return func(k Key) bool {
		_, ok := set[k]
		return ok
	}
}

// MatchAny matches a key accepted by at least one of the matchers.
func MatchAny(matchers ...Matcher) Matcher {
	return func(k Key) bool {
		for _, m := range matchers {
			if m != nil && m(k) {
				return true
			}
		}
		return false
	}
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Params < keys[j].Params
	})
}
