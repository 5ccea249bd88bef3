// Package record defines the flat interaction record handed over by
// importers, its validator, and readers for record files.
package record

import (
	"sort"
	"strings"
)

// Record is a flat string-keyed attribute bag describing one observed
// interaction between a source and a target organism.
type Record map[string]string

// Get returns the trimmed value of key.
func (r Record) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Has reports whether key holds a non-blank value.
func (r Record) Has(key string) bool {
	return r.Get(key) != ""
}

// First returns the first non-blank value among keys.
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// Path splits a |-separated path field into trimmed elements.
// Empty elements are kept so positions still line up with sibling paths.
func (r Record) Path(key string) []string {
	raw := r.Get(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Context renders the non-blank fields as sorted key=value pairs, for log lines.
func (r Record) Context() string {
	keys := make([]string, 0, len(r))
	for k, v := range r {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(r[k]))
	}
	return b.String()
}
