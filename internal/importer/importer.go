// Package importer ingests tabular applicant and organization data into the
// record store with per-row error isolation.
package importer

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/service"
	"github.com/sail-placements/sail/internal/tabular"
)

// ListDelimiter separates entries in list-valued cells.
const ListDelimiter = ";"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether the address has a plausible mailbox form.
// Empty addresses are allowed; absence is not an error.
func ValidEmail(email string) bool {
	if email == "" {
		return true
	}
	return emailPattern.MatchString(email)
}

// keyedMutex serializes writes per applicant identifier so concurrent
// imports touching the same key cannot lose updates, while disjoint keys
// proceed in parallel.
type keyedMutex struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// sharedKeys is the process-wide per-identifier lock set. All importers in
// one process share it, whichever file they are working on.
var sharedKeys = newKeyedMutex()

// resultLog builds the audit entry for a finished run and persists it.
func writeImportLog(ctx context.Context, storage service.Storage, fileName, importedBy string, kind model.ImportKind, summary *service.ImportSummary) error {
	log := &model.ImportLog{
		FileName:     fileName,
		Kind:         kind,
		ImportedBy:   importedBy,
		SuccessCount: summary.SuccessCount,
		ErrorCount:   len(summary.Errors),
		Errors:       summary.Errors,
	}
	if err := storage.SaveImportLog(ctx, log); err != nil {
		return fmt.Errorf("failed to write import log: %w", err)
	}
	return nil
}

// rowError appends a structured error for one row.
func rowError(summary *service.ImportSummary, row tabular.Row, message string) {
	summary.Errors = append(summary.Errors, model.ImportError{
		RowIndex: row.Index,
		Message:  message,
		Data:     row.Snapshot(),
	})
}

// configError appends an error not tied to any row.
func configError(summary *service.ImportSummary, message string) {
	summary.Errors = append(summary.Errors, model.ImportError{
		RowIndex: -1,
		Message:  message,
	})
}
