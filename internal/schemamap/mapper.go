// Package schemamap resolves free-form spreadsheet headers onto canonical
// field names using ordered pattern lists.
package schemamap

import "strings"

// FieldPattern pairs a canonical field with its acceptable header fragments,
// in priority order.
type FieldPattern struct {
	Field     string
	Fragments []string
}

// Mapping is the result of resolving a header set against a catalogue.
type Mapping struct {
	// Columns maps canonical field -> actual header text.
	Columns map[string]string
	// Unresolved lists canonical fields with no matching header, in
	// catalogue order. Whether an unresolved field is fatal is the caller's
	// decision.
	Unresolved []string
}

// Has reports whether the canonical field resolved to a header.
func (m Mapping) Has(field string) bool {
	_, ok := m.Columns[field]
	return ok
}

// Header returns the actual header for a canonical field, or "".
func (m Mapping) Header(field string) string {
	return m.Columns[field]
}

// Resolve maps each catalogue field to the first header containing one of
// its fragments, case-insensitively. Fragments are tried in priority order;
// when several headers contain the same fragment, the first in column order
// wins. Both tie-breaks are deterministic and documented behavior, not
// best-effort.
func Resolve(headers []string, catalogue []FieldPattern) Mapping {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(h)
	}

	mapping := Mapping{Columns: make(map[string]string, len(catalogue))}

	for _, fp := range catalogue {
		found := false
		for _, fragment := range fp.Fragments {
			frag := strings.ToLower(fragment)
			for i, h := range lowered {
				if strings.Contains(h, frag) {
					mapping.Columns[fp.Field] = headers[i]
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			mapping.Unresolved = append(mapping.Unresolved, fp.Field)
		}
	}

	return mapping
}
