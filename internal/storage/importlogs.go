package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sail-placements/sail/internal/model"
)

// SaveImportLog appends one immutable audit entry for an import or
// extraction run.
func (s *SQLiteStorage) SaveImportLog(ctx context.Context, log *model.ImportLog) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveImportLog(ctx, s.db, log)
}

func (s *SQLiteStorage) saveImportLog(ctx context.Context, q dbtx, log *model.ImportLog) error {
	if log == nil {
		return fmt.Errorf("%w: import log", ErrNilParameter)
	}
	if err := validateString(log.FileName, "fileName"); err != nil {
		return err
	}

	errorsJSON, err := log.MarshalErrors()
	if err != nil {
		return fmt.Errorf("failed to marshal import errors: %w", err)
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO import_logs (file_name, kind, imported_by, success_count, error_count, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.FileName, string(log.Kind), log.ImportedBy,
		log.SuccessCount, log.ErrorCount, errorsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save import log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get import log ID: %w", err)
	}
	log.ID = id
	return nil
}

// GetImportLogs returns audit entries, newest first. A limit of 0 means all.
func (s *SQLiteStorage) GetImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getImportLogs(ctx, s.db, limit)
}

func (s *SQLiteStorage) getImportLogs(ctx context.Context, q dbtx, limit int) ([]model.ImportLog, error) {
	query := `
		SELECT id, file_name, kind, imported_by, success_count, error_count, errors, created_at
		FROM import_logs
		ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []model.ImportLog
	for rows.Next() {
		var l model.ImportLog
		var kind string
		var importedBy, errorsJSON sql.NullString
		if err := rows.Scan(&l.ID, &l.FileName, &kind, &importedBy,
			&l.SuccessCount, &l.ErrorCount, &errorsJSON, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		l.Kind = model.ImportKind(kind)
		l.ImportedBy = importedBy.String
		if err := l.UnmarshalErrors(errorsJSON.String); err != nil {
			return nil, fmt.Errorf("failed to decode import errors: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import logs: %w", err)
	}
	return logs, nil
}
