// Package tabular decodes spreadsheet exports into ordered rows of named
// cells for the importers.
package tabular

import "strings"

// Row is one record of named cells.
type Row struct {
	cells map[string]string
	// Index is the zero-based data row index within the source file
	// (header excluded), used in error reports.
	Index int
}

// Cell returns the trimmed value for a header, and whether the column exists
// at all. Sentinel not-a-value strings produced by spreadsheet tools are
// treated as blank.
func (r Row) Cell(header string) (string, bool) {
	raw, ok := r.cells[header]
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	switch strings.ToLower(value) {
	case "nan", "n/a", "na", "null", "none":
		return "", true
	}
	return value, true
}

// IsBlank reports whether the cell is missing or has no usable value.
func (r Row) IsBlank(header string) bool {
	value, ok := r.Cell(header)
	return !ok || value == ""
}

// Snapshot returns a copy of the raw row for error reporting.
func (r Row) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(r.cells))
	for k, v := range r.cells {
		snapshot[k] = v
	}
	return snapshot
}

// Table is a decoded tabular source: an ordered header list plus data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// SplitList breaks a delimiter-separated cell into a trimmed,
// order-preserving sequence, dropping empty entries.
func SplitList(value, delimiter string) []string {
	var items []string
	for _, part := range strings.Split(value, delimiter) {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
