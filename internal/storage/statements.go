package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sail-placements/sail/internal/model"
)

// UpsertStatement creates or updates a statement keyed by (applicant, area).
// A nil incoming grade never clears an existing one.
func (s *SQLiteStorage) UpsertStatement(ctx context.Context, statement *model.Statement) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.upsertStatement(ctx, s.db, statement)
}

func (s *SQLiteStorage) upsertStatement(ctx context.Context, q dbtx, statement *model.Statement) error {
	if statement == nil {
		return fmt.Errorf("%w: statement", ErrNilParameter)
	}
	if statement.ApplicantID == 0 {
		return fmt.Errorf("%w: statement applicant ID", ErrNilParameter)
	}
	if err := validateString(statement.AreaOfLaw, "areaOfLaw"); err != nil {
		return err
	}

	var grade any
	if statement.Grade != nil {
		grade = *statement.Grade
	}

	now := time.Now().UTC()
	_, err := q.ExecContext(ctx, `
		INSERT INTO statements (applicant_id, area_of_law, content, grade, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(applicant_id, area_of_law) DO UPDATE SET
			content = excluded.content,
			grade = COALESCE(excluded.grade, statements.grade),
			updated_at = excluded.updated_at`,
		statement.ApplicantID, statement.AreaOfLaw, statement.Content, grade, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert statement: %w", err)
	}
	return nil
}

// GetStatement returns the statement for (applicant, area), or nil when none
// exists.
func (s *SQLiteStorage) GetStatement(ctx context.Context, applicantID int64, areaOfLaw string) (*model.Statement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getStatement(ctx, s.db, applicantID, areaOfLaw)
}

func (s *SQLiteStorage) getStatement(ctx context.Context, q dbtx, applicantID int64, areaOfLaw string) (*model.Statement, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, applicant_id, area_of_law, content, grade, created_at, updated_at
		FROM statements
		WHERE applicant_id = ? AND area_of_law = ? COLLATE NOCASE`,
		applicantID, areaOfLaw)

	statement, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query statement: %w", err)
	}
	return statement, nil
}

// GetStatements returns all statements for an applicant, ordered by area.
func (s *SQLiteStorage) GetStatements(ctx context.Context, applicantID int64) ([]model.Statement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getStatements(ctx, s.db, applicantID)
}

func (s *SQLiteStorage) getStatements(ctx context.Context, q dbtx, applicantID int64) ([]model.Statement, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, applicant_id, area_of_law, content, grade, created_at, updated_at
		FROM statements
		WHERE applicant_id = ?
		ORDER BY area_of_law`, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var statements []model.Statement
	for rows.Next() {
		statement, scanErr := scanStatement(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", scanErr)
		}
		statements = append(statements, *statement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statements: %w", err)
	}
	return statements, nil
}

func scanStatement(row rowScanner) (*model.Statement, error) {
	var st model.Statement
	var grade sql.NullInt64
	if err := row.Scan(&st.ID, &st.ApplicantID, &st.AreaOfLaw, &st.Content, &grade, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	if grade.Valid {
		g := int(grade.Int64)
		st.Grade = &g
	}
	return &st, nil
}
