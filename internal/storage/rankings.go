package storage

import (
	"context"
	"fmt"

	"github.com/sail-placements/sail/internal/model"
)

// ReplaceAreaRankings swaps an applicant's area rankings for a new set. The
// set must be a contiguous 1..k permutation with no duplicate areas.
func (s *SQLiteStorage) ReplaceAreaRankings(ctx context.Context, applicantID int64, rankings []model.AreaRanking) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.replaceAreaRankings(ctx, s.db, applicantID, rankings)
}

func (s *SQLiteStorage) replaceAreaRankings(ctx context.Context, q dbtx, applicantID int64, rankings []model.AreaRanking) error {
	if err := validateRankings(rankings); err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM area_rankings WHERE applicant_id = ?`, applicantID); err != nil {
		return fmt.Errorf("failed to clear area rankings: %w", err)
	}

	for _, r := range rankings {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO area_rankings (applicant_id, area_of_law, rank)
			VALUES (?, ?, ?)`,
			applicantID, r.AreaOfLaw, r.Rank); err != nil {
			return fmt.Errorf("failed to insert ranking %q: %w", r.AreaOfLaw, err)
		}
	}
	return nil
}

// GetAreaRankings returns an applicant's rankings ordered by rank.
func (s *SQLiteStorage) GetAreaRankings(ctx context.Context, applicantID int64) ([]model.AreaRanking, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getAreaRankings(ctx, s.db, applicantID)
}

func (s *SQLiteStorage) getAreaRankings(ctx context.Context, q dbtx, applicantID int64) ([]model.AreaRanking, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, applicant_id, area_of_law, rank, created_at
		FROM area_rankings
		WHERE applicant_id = ?
		ORDER BY rank`, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query area rankings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rankings []model.AreaRanking
	for rows.Next() {
		var r model.AreaRanking
		if err := rows.Scan(&r.ID, &r.ApplicantID, &r.AreaOfLaw, &r.Rank, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		rankings = append(rankings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rankings: %w", err)
	}
	return rankings, nil
}
