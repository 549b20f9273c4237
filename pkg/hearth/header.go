package hearth

import "strings"

// headerField is one stored header: Name is exactly as first inserted
// (preserved for wire output), Value has been trimmed of surrounding
// whitespace.
type headerField struct {
	Name  string
	Value string
}

// Headers is a case-insensitive, ordered-insertion header store. Lookups
// lowercase the query key; insertion order (and original casing of names)
// is preserved for serialization.
type Headers struct {
	fields []headerField
	index  map[string]int // lowercased name -> index into fields
}

// NewHeaders returns an empty header store ready for use.
func NewHeaders() Headers {
	return Headers{index: make(map[string]int)}
}

// ParseHeaderLine parses one "name: value" line and inserts it. Leading and
// trailing whitespace is trimmed from the value. A line with no colon is a
// parse failure (ok == false); per spec, the header name itself is not
// re-validated beyond that split.
func (h *Headers) ParseHeaderLine(line string) (ok bool) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return false
	}
	h.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	return true
}

func (h *Headers) ensureIndex() {
	if h.index == nil {
		h.index = make(map[string]int)
	}
}

// Set inserts name/value, overwriting any existing value for name
// (case-insensitive) while preserving its original insertion position. A
// name seen for the first time is appended in order.
func (h *Headers) Set(name, value string) {
	h.ensureIndex()
	key := strings.ToLower(name)
	if i, ok := h.index[key]; ok {
		h.fields[i].Value = value
		return
	}
	h.index[key] = len(h.fields)
	h.fields = append(h.fields, headerField{Name: name, Value: value})
}

// Get returns the value for name (case-insensitive) and whether it was
// present.
func (h Headers) Get(name string) (string, bool) {
	if h.index == nil {
		return "", false
	}
	i, ok := h.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return h.fields[i].Value, true
}

// GetOr returns the value for name, or def if not present.
func (h Headers) GetOr(name, def string) string {
	if v, ok := h.Get(name); ok {
		return v
	}
	return def
}

// Has reports whether name is present (case-insensitive).
func (h Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Len returns the number of distinct header names stored.
func (h Headers) Len() int { return len(h.fields) }

// VisitAll calls visit for each header in insertion order.
func (h Headers) VisitAll(visit func(name, value string)) {
	for _, f := range h.fields {
		visit(f.Name, f.Value)
	}
}
