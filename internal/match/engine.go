package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sail-placements/sail/internal/common"
	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/service"
)

// Engine runs matching rounds. At most one round runs at a time, enforced
// both in-process and against the round table.
type Engine struct {
	storage      service.Storage
	weights      Weights
	statementMax int
	mu           sync.Mutex
}

// NewEngine creates a matching engine. statementMax is the denominator for
// statement grades; zero selects the default.
func NewEngine(storage service.Storage, weights Weights, statementMax int) *Engine {
	if statementMax <= 0 {
		statementMax = model.DefaultStatementMax
	}
	return &Engine{
		storage:      storage,
		weights:      weights.Normalized(),
		statementMax: statementMax,
	}
}

// snapshot is the frozen view of the matchable world a round works from.
// Imports running mid-round cannot shift its inputs.
type snapshot struct {
	applicants []model.Applicant
	orgs       []model.Organization
	rankings   map[int64][]model.AreaRanking
	grades     map[int64]*model.Grade
	statements map[int64]map[string]*model.Statement
}

// Run executes one matching round: snapshot, score, greedy assign, persist.
// All assignments and capacity updates commit atomically; a failed round
// leaves no partial assignments and is recorded as failed.
func (e *Engine) Run(ctx context.Context) (*model.MatchingRound, error) {
	if !e.mu.TryLock() {
		return nil, common.ErrRoundRunning
	}
	defer e.mu.Unlock()

	if running, err := e.storage.GetRunningRound(ctx); err != nil {
		return nil, err
	} else if running != nil {
		return nil, fmt.Errorf("%w: round %d", common.ErrRoundRunning, running.Number)
	}

	round, err := e.storage.CreateRound(ctx)
	if err != nil {
		return nil, err
	}

	round.Status = model.RoundRunning
	if err := e.storage.UpdateRound(ctx, round); err != nil {
		return nil, err
	}
	slog.Info("matching round started", "round", round.Number)

	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return round, e.failRound(ctx, round, err)
	}
	round.TotalStudents = len(snap.applicants)

	candidates := e.buildCandidates(snap)
	sortCandidates(candidates)

	matched, err := e.persistAssignments(ctx, round, candidates)
	if err != nil {
		return round, e.failRound(ctx, round, err)
	}

	now := time.Now().UTC()
	round.Status = model.RoundCompleted
	round.MatchedStudents = matched
	round.CompletedAt = &now
	if err := e.storage.UpdateRound(ctx, round); err != nil {
		return round, err
	}

	slog.Info("matching round completed",
		"round", round.Number,
		"total", round.TotalStudents,
		"matched", round.MatchedStudents)
	return round, nil
}

// loadSnapshot reads everything a round scores on: unmatched active
// applicants, active organizations with open positions, and each applicant's
// rankings, grades, and statements.
func (e *Engine) loadSnapshot(ctx context.Context) (*snapshot, error) {
	applicants, err := e.storage.GetApplicants(ctx, service.ApplicantFilter{
		OnlyActive:    true,
		OnlyUnmatched: true,
	})
	if err != nil {
		return nil, err
	}

	orgs, err := e.storage.GetOrganizations(ctx, service.OrganizationFilter{
		OnlyActive:       true,
		OnlyWithCapacity: true,
	})
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		applicants: applicants,
		orgs:       orgs,
		rankings:   make(map[int64][]model.AreaRanking, len(applicants)),
		grades:     make(map[int64]*model.Grade, len(applicants)),
		statements: make(map[int64]map[string]*model.Statement, len(applicants)),
	}

	for i := range applicants {
		id := applicants[i].ID

		rankings, err := e.storage.GetAreaRankings(ctx, id)
		if err != nil {
			return nil, err
		}
		snap.rankings[id] = rankings

		grade, err := e.storage.GetGrade(ctx, id)
		if err != nil {
			return nil, err
		}
		snap.grades[id] = grade

		statements, err := e.storage.GetStatements(ctx, id)
		if err != nil {
			return nil, err
		}
		byArea := make(map[string]*model.Statement, len(statements))
		for j := range statements {
			byArea[normalizeArea(statements[j].AreaOfLaw)] = &statements[j]
		}
		snap.statements[id] = byArea
	}

	return snap, nil
}

// buildCandidates scores every (applicant, organization, area) triple where
// the applicant ranked the area and the organization recruits for it.
func (e *Engine) buildCandidates(snap *snapshot) []candidate {
	var candidates []candidate

	for i := range snap.applicants {
		applicant := &snap.applicants[i]

		var gradeScore float64
		if grade := snap.grades[applicant.ID]; grade != nil {
			gradeScore, _ = grade.Average()
		}

		for _, ranking := range snap.rankings[applicant.ID] {
			pref := preferenceScore(ranking.Rank)

			var stmtScore float64
			if stmt := snap.statements[applicant.ID][normalizeArea(ranking.AreaOfLaw)]; stmt != nil && stmt.Grade != nil {
				stmtScore = float64(*stmt.Grade) / float64(e.statementMax)
			}

			for j := range snap.orgs {
				org := &snap.orgs[j]
				if !org.RecruitsFor(ranking.AreaOfLaw) {
					continue
				}

				fit := fitScore(applicant, org)
				breakdown := model.ScoreBreakdown{
					Preference: pref,
					Grade:      gradeScore,
					Statement:  stmtScore,
					Fit:        fit,
				}
				candidates = append(candidates, candidate{
					applicant: applicant,
					org:       org,
					area:      ranking.AreaOfLaw,
					rank:      ranking.Rank,
					remaining: org.RemainingPositions(),
					score: e.weights.Preference*pref +
						e.weights.Grade*gradeScore +
						e.weights.Statement*stmtScore +
						e.weights.Fit*fit,
					breakdown: breakdown,
				})
			}
		}
	}

	return candidates
}

// sortCandidates orders candidates deterministically: score descending, then
// applicant rank ascending, then snapshot capacity descending, then applicant
// external ID. Equal inputs always yield the same assignments.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.remaining != b.remaining {
			return a.remaining > b.remaining
		}
		return a.applicant.ExternalID < b.applicant.ExternalID
	})
}

// persistAssignments walks the sorted candidates greedily, assigning each
// applicant at most once and never over capacity, all in one transaction.
// SQLite lock contention retries the whole transaction.
func (e *Engine) persistAssignments(ctx context.Context, round *model.MatchingRound, candidates []candidate) (int, error) {
	var matched int

	err := common.WithRetry(ctx, func() error {
		matched = 0
		tx, err := e.storage.BeginTx(ctx)
		if err != nil {
			return err
		}

		assigned := make(map[int64]bool)
		remaining := make(map[int64]int)
		for _, c := range candidates {
			if _, ok := remaining[c.org.ID]; !ok {
				remaining[c.org.ID] = c.org.RemainingPositions()
			}
		}

		for _, c := range candidates {
			if assigned[c.applicant.ID] || remaining[c.org.ID] <= 0 {
				continue
			}

			assignment := &model.MatchAssignment{
				ApplicantID:    c.applicant.ID,
				OrganizationID: c.org.ID,
				AreaOfLaw:      c.area,
				RoundNumber:    round.Number,
				Status:         model.AssignmentPending,
				Score:          c.score,
				Breakdown:      c.breakdown,
			}
			if err := tx.SaveAssignment(ctx, assignment); err != nil {
				_ = tx.Rollback()
				return err
			}
			if err := tx.AdjustFilledPositions(ctx, c.org.ID, 1); err != nil {
				_ = tx.Rollback()
				return err
			}
			if err := tx.SetApplicantMatched(ctx, c.applicant.ID, true); err != nil {
				_ = tx.Rollback()
				return err
			}

			assigned[c.applicant.ID] = true
			remaining[c.org.ID]--
			matched++
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit round %d: %w", round.Number, err)
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 3})

	if err != nil {
		return 0, err
	}
	return matched, nil
}

// failRound marks the round failed, preserving the original error.
func (e *Engine) failRound(ctx context.Context, round *model.MatchingRound, cause error) error {
	now := time.Now().UTC()
	round.Status = model.RoundFailed
	round.ErrorMessage = cause.Error()
	round.CompletedAt = &now

	if updateErr := e.storage.UpdateRound(ctx, round); updateErr != nil {
		slog.Error("failed to record round failure", "round", round.Number, "error", updateErr)
	}
	slog.Error("matching round failed", "round", round.Number, "error", cause)
	return cause
}

// Reset undoes a round: every assignment it created is removed, each
// organization's filled positions drop by exactly the assignments deleted,
// and the affected applicants become matchable again.
func (e *Engine) Reset(ctx context.Context, roundNumber int) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	round, err := e.storage.GetRound(ctx, roundNumber)
	if err != nil {
		return err
	}
	if round == nil {
		return fmt.Errorf("round %d: %w", roundNumber, common.ErrNotFound)
	}
	if round.Status == model.RoundRunning {
		return fmt.Errorf("%w: round %d", common.ErrRoundRunning, roundNumber)
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	assignments, err := tx.GetAssignmentsByRound(ctx, roundNumber)
	if err != nil {
		return err
	}

	for _, a := range assignments {
		if err = tx.AdjustFilledPositions(ctx, a.OrganizationID, -1); err != nil {
			return err
		}
		if err = tx.SetApplicantMatched(ctx, a.ApplicantID, false); err != nil {
			return err
		}
	}

	if err = tx.DeleteAssignmentsByRound(ctx, roundNumber); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset of round %d: %w", roundNumber, err)
	}

	slog.Info("matching round reset", "round", roundNumber, "assignments", len(assignments))
	return nil
}

// normalizeArea folds an area-of-law label for case-insensitive comparison.
func normalizeArea(area string) string {
	return strings.ToLower(strings.TrimSpace(area))
}
