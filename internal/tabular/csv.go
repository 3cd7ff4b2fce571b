package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReadCSV decodes a CSV export into a Table. The reader is consumed fully.
// UTF-8 input (with or without a BOM) is taken as-is; input that is not
// valid UTF-8 is re-decoded as Latin-1, which covers the second common
// encoding these exports arrive in. Short rows are padded, long rows
// truncated, so one ragged row cannot sink the file.
func ReadCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	if !utf8.Valid(raw) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if decErr != nil {
			return nil, fmt.Errorf("failed to decode CSV as Latin-1: %w", decErr)
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV has no header row")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for i, record := range records[1:] {
		cells := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(record) {
				cells[header] = record[j]
			} else {
				cells[header] = ""
			}
		}
		table.Rows = append(table.Rows, Row{Index: i, cells: cells})
	}

	return table, nil
}
