package cascade

import "strings"

// StyleMap is an ordered property->value map, preserving first-insertion
// order so serialization is deterministic. It backs both the inline `style`
// attribute and the script interpreter's .style assignments.
type StyleMap struct {
	keys []string
	vals map[string]string
}

// NewStyleMap returns an empty StyleMap.
func NewStyleMap() *StyleMap {
	return &StyleMap{vals: make(map[string]string)}
}

// Set adds or updates a property, preserving its original position on
// update and appending on insert.
func (m *StyleMap) Set(key, value string) {
	if m.vals == nil {
		m.vals = make(map[string]string)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Get returns the value for key and whether it was present.
func (m *StyleMap) Get(key string) (string, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the properties in insertion order.
func (m *StyleMap) Keys() []string {
	return m.keys
}

// Len reports the number of properties.
func (m *StyleMap) Len() int {
	return len(m.keys)
}

// ParseInlineStyle parses a semicolon-separated `k:v` inline style
// string.
func ParseInlineStyle(s string) *StyleMap {
	m := NewStyleMap()
	for _, piece := range strings.Split(s, ";") {
		idx := strings.IndexByte(piece, ':')
		if idx < 0 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(piece[:idx]))
		v := strings.TrimSpace(piece[idx+1:])
		if k == "" {
			continue
		}
		m.Set(k, v)
	}
	return m
}

// SerializeInlineStyle produces the canonical inline-style form: each
// `k: v;` pair joined by a single space, in insertion order.
func SerializeInlineStyle(m *StyleMap) string {
	var b strings.Builder
	for i, k := range m.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(m.vals[k])
		b.WriteByte(';')
	}
	return b.String()
}
