package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sail-placements/sail/internal/model"
)

// SaveAssignment inserts a new match assignment. Assignments are created by
// matching rounds only; duplicates per (applicant, organization, area) fail.
func (s *SQLiteStorage) SaveAssignment(ctx context.Context, assignment *model.MatchAssignment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveAssignment(ctx, s.db, assignment)
}

func (s *SQLiteStorage) saveAssignment(ctx context.Context, q dbtx, assignment *model.MatchAssignment) error {
	if err := validateAssignment(assignment); err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO match_assignments (
			applicant_id, organization_id, area_of_law, round_number, status,
			score, preference_score, grade_score, statement_score, fit_score,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		assignment.ApplicantID, assignment.OrganizationID, assignment.AreaOfLaw,
		assignment.RoundNumber, string(assignment.Status),
		assignment.Score, assignment.Breakdown.Preference, assignment.Breakdown.Grade,
		assignment.Breakdown.Statement, assignment.Breakdown.Fit,
		now, now)
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get assignment ID: %w", err)
	}
	assignment.ID = id
	return nil
}

// GetAssignmentsByRound returns all assignments created by one round.
func (s *SQLiteStorage) GetAssignmentsByRound(ctx context.Context, roundNumber int) ([]model.MatchAssignment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getAssignmentsByRound(ctx, s.db, roundNumber)
}

func (s *SQLiteStorage) getAssignmentsByRound(ctx context.Context, q dbtx, roundNumber int) ([]model.MatchAssignment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, applicant_id, organization_id, area_of_law, round_number, status,
			score, preference_score, grade_score, statement_score, fit_score,
			created_at, updated_at
		FROM match_assignments
		WHERE round_number = ?
		ORDER BY score DESC, id`, roundNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []model.MatchAssignment
	for rows.Next() {
		var a model.MatchAssignment
		var status string
		if err := rows.Scan(
			&a.ID, &a.ApplicantID, &a.OrganizationID, &a.AreaOfLaw, &a.RoundNumber, &status,
			&a.Score, &a.Breakdown.Preference, &a.Breakdown.Grade,
			&a.Breakdown.Statement, &a.Breakdown.Fit,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Status = model.AssignmentStatus(status)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

// UpdateAssignmentStatus moves an assignment through the approval workflow.
func (s *SQLiteStorage) UpdateAssignmentStatus(ctx context.Context, assignmentID int64, status model.AssignmentStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateAssignmentStatus(ctx, s.db, assignmentID, status)
}

func (s *SQLiteStorage) updateAssignmentStatus(ctx context.Context, q dbtx, assignmentID int64, status model.AssignmentStatus) error {
	if !model.ValidAssignmentStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	result, err := q.ExecContext(ctx,
		`UPDATE match_assignments SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), assignmentID)
	if err != nil {
		return fmt.Errorf("failed to update assignment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("assignment %d: %w", assignmentID, sql.ErrNoRows)
	}
	return nil
}

// DeleteAssignmentsByRound removes every assignment a round created. Used by
// round reset only.
func (s *SQLiteStorage) DeleteAssignmentsByRound(ctx context.Context, roundNumber int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.deleteAssignmentsByRound(ctx, s.db, roundNumber)
}

func (s *SQLiteStorage) deleteAssignmentsByRound(ctx context.Context, q dbtx, roundNumber int) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM match_assignments WHERE round_number = ?`, roundNumber); err != nil {
		return fmt.Errorf("failed to delete assignments for round %d: %w", roundNumber, err)
	}
	return nil
}
