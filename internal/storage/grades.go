package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sail-placements/sail/internal/model"
)

// GetGrade returns the applicant's grade record, or nil when none exists.
func (s *SQLiteStorage) GetGrade(ctx context.Context, applicantID int64) (*model.Grade, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getGrade(ctx, s.db, applicantID)
}

func (s *SQLiteStorage) getGrade(ctx context.Context, q dbtx, applicantID int64) (*model.Grade, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, applicant_id,
			constitutional_law, contracts, criminal_law, property_law, torts,
			lrw_case_brief, lrw_multiple_case, lrw_short_memo,
			created_at, updated_at
		FROM grades
		WHERE applicant_id = ?`, applicantID)

	var g model.Grade
	cells := make([]sql.NullString, len(model.GradeFields))
	dest := []any{&g.ID, &g.ApplicantID}
	for i := range cells {
		dest = append(dest, &cells[i])
	}
	dest = append(dest, &g.CreatedAt, &g.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query grade: %w", err)
	}

	g.Fields = make(map[string]*model.GradeValue)
	for i, field := range model.GradeFields {
		if !cells[i].Valid || cells[i].String == "" {
			continue
		}
		value, err := model.ParseGradeValue(cells[i].String)
		if err != nil {
			return nil, fmt.Errorf("stored grade for %s is invalid: %w", field, err)
		}
		g.Fields[field] = value
	}
	return &g, nil
}

// UpsertGrade merges the given fields into the applicant's single grade
// record. Fields absent from the incoming record keep their stored value; an
// upsert never nulls out an existing grade.
func (s *SQLiteStorage) UpsertGrade(ctx context.Context, grade *model.Grade) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.upsertGrade(ctx, s.db, grade)
}

func (s *SQLiteStorage) upsertGrade(ctx context.Context, q dbtx, grade *model.Grade) error {
	if grade == nil {
		return fmt.Errorf("%w: grade", ErrNilParameter)
	}
	if grade.ApplicantID == 0 {
		return fmt.Errorf("%w: grade applicant ID", ErrNilParameter)
	}

	values := make([]any, 0, len(model.GradeFields)+3)
	values = append(values, grade.ApplicantID)
	for _, field := range model.GradeFields {
		if v := grade.Fields[field]; v != nil {
			values = append(values, v.String())
		} else {
			values = append(values, nil)
		}
	}
	now := time.Now().UTC()
	values = append(values, now, now)

	// COALESCE keeps the stored value whenever the incoming field is NULL.
	_, err := q.ExecContext(ctx, `
		INSERT INTO grades (
			applicant_id,
			constitutional_law, contracts, criminal_law, property_law, torts,
			lrw_case_brief, lrw_multiple_case, lrw_short_memo,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(applicant_id) DO UPDATE SET
			constitutional_law = COALESCE(excluded.constitutional_law, grades.constitutional_law),
			contracts = COALESCE(excluded.contracts, grades.contracts),
			criminal_law = COALESCE(excluded.criminal_law, grades.criminal_law),
			property_law = COALESCE(excluded.property_law, grades.property_law),
			torts = COALESCE(excluded.torts, grades.torts),
			lrw_case_brief = COALESCE(excluded.lrw_case_brief, grades.lrw_case_brief),
			lrw_multiple_case = COALESCE(excluded.lrw_multiple_case, grades.lrw_multiple_case),
			lrw_short_memo = COALESCE(excluded.lrw_short_memo, grades.lrw_short_memo),
			updated_at = excluded.updated_at`,
		values...)
	if err != nil {
		return fmt.Errorf("failed to upsert grade: %w", err)
	}
	return nil
}
