package model

import (
	"encoding/json"
	"time"
)

// ImportKind distinguishes the two ingestion paths.
type ImportKind string

// Import kinds.
const (
	ImportKindTabular  ImportKind = "tabular"
	ImportKindDocument ImportKind = "document"
)

// ImportError is one structured entry in an import's error list. RowIndex is
// -1 for errors not tied to a row (configuration or document-level failures).
type ImportError struct {
	Data     map[string]string `json:"data,omitempty"`
	Message  string            `json:"message"`
	RowIndex int               `json:"row_index"`
}

// ImportLog is the immutable audit record of one import or extraction run.
type ImportLog struct {
	CreatedAt    time.Time
	FileName     string
	Kind         ImportKind
	ImportedBy   string
	Errors       []ImportError
	SuccessCount int
	ErrorCount   int
	ID           int64
}

// MarshalErrors serializes the error list for storage.
func (l *ImportLog) MarshalErrors() (string, error) {
	if len(l.Errors) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l.Errors)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalErrors restores the error list from its stored form.
func (l *ImportLog) UnmarshalErrors(data string) error {
	if data == "" {
		l.Errors = nil
		return nil
	}
	return json.Unmarshal([]byte(data), &l.Errors)
}
