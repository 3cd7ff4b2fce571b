package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sail-placements/sail/internal/model"
)

// CreateRound inserts a new pending round with the next round number.
func (s *SQLiteStorage) CreateRound(ctx context.Context) (*model.MatchingRound, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.createRound(ctx, s.db)
}

func (s *SQLiteStorage) createRound(ctx context.Context, q dbtx) (*model.MatchingRound, error) {
	var next int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM matching_rounds`).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next round number: %w", err)
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO matching_rounds (number, status, started_at)
		VALUES (?, ?, ?)`,
		next, string(model.RoundPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get round ID: %w", err)
	}

	return &model.MatchingRound{
		ID:        id,
		Number:    next,
		Status:    model.RoundPending,
		StartedAt: now,
	}, nil
}

// UpdateRound persists round status and statistics. Completed and failed
// rounds are immutable; attempting to update one is an error.
func (s *SQLiteStorage) UpdateRound(ctx context.Context, round *model.MatchingRound) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateRound(ctx, s.db, round)
}

func (s *SQLiteStorage) updateRound(ctx context.Context, q dbtx, round *model.MatchingRound) error {
	if round == nil {
		return fmt.Errorf("%w: round", ErrNilParameter)
	}

	result, err := q.ExecContext(ctx, `
		UPDATE matching_rounds
		SET status = ?, error_message = ?, total_students = ?, matched_students = ?, completed_at = ?
		WHERE number = ? AND status IN (?, ?)`,
		string(round.Status), round.ErrorMessage, round.TotalStudents, round.MatchedStudents,
		nullTime(round.CompletedAt),
		round.Number, string(model.RoundPending), string(model.RoundRunning))
	if err != nil {
		return fmt.Errorf("failed to update round %d: %w", round.Number, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("round %d is not open for updates", round.Number)
	}
	return nil
}

// GetRound returns one round by number, or nil when it does not exist.
func (s *SQLiteStorage) GetRound(ctx context.Context, number int) (*model.MatchingRound, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getRound(ctx, s.db, number)
}

func (s *SQLiteStorage) getRound(ctx context.Context, q dbtx, number int) (*model.MatchingRound, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, number, status, error_message, total_students, matched_students, started_at, completed_at
		FROM matching_rounds
		WHERE number = ?`, number)

	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query round: %w", err)
	}
	return round, nil
}

// GetRounds returns all rounds, newest first.
func (s *SQLiteStorage) GetRounds(ctx context.Context) ([]model.MatchingRound, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getRounds(ctx, s.db)
}

func (s *SQLiteStorage) getRounds(ctx context.Context, q dbtx) ([]model.MatchingRound, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, number, status, error_message, total_students, matched_students, started_at, completed_at
		FROM matching_rounds
		ORDER BY number DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rounds []model.MatchingRound
	for rows.Next() {
		round, scanErr := scanRound(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan round: %w", scanErr)
		}
		rounds = append(rounds, *round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}
	return rounds, nil
}

// GetRunningRound returns the currently running round, or nil when no round
// is running.
func (s *SQLiteStorage) GetRunningRound(ctx context.Context) (*model.MatchingRound, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getRunningRound(ctx, s.db)
}

func (s *SQLiteStorage) getRunningRound(ctx context.Context, q dbtx) (*model.MatchingRound, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, number, status, error_message, total_students, matched_students, started_at, completed_at
		FROM matching_rounds
		WHERE status = ?
		ORDER BY number DESC
		LIMIT 1`, string(model.RoundRunning))

	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query running round: %w", err)
	}
	return round, nil
}

func scanRound(row rowScanner) (*model.MatchingRound, error) {
	var r model.MatchingRound
	var status string
	var errorMessage sql.NullString
	var completedAt sql.NullTime

	if err := row.Scan(&r.ID, &r.Number, &status, &errorMessage,
		&r.TotalStudents, &r.MatchedStudents, &r.StartedAt, &completedAt); err != nil {
		return nil, err
	}

	r.Status = model.RoundStatus(status)
	r.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
