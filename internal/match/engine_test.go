package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sail-placements/sail/internal/common"
	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/testutil"
)

func TestEngine_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("matches a ranked applicant to a recruiting organization", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S001", "Dana", "Okafor")
		org := testutil.SeedOrganization(t, store, "River Defense Fund", 2, "Environmental Law")
		testutil.SeedRankings(t, store, applicant.ID, "Environmental Law")

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.RoundCompleted, round.Status)
		assert.Equal(t, 1, round.TotalStudents)
		assert.Equal(t, 1, round.MatchedStudents)

		assignments, err := store.GetAssignmentsByRound(ctx, round.Number)
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Equal(t, applicant.ID, assignments[0].ApplicantID)
		assert.Equal(t, org.ID, assignments[0].OrganizationID)
		assert.Equal(t, "Environmental Law", assignments[0].AreaOfLaw)
		assert.Equal(t, model.AssignmentPending, assignments[0].Status)

		savedOrg, err := store.GetOrganizationByName(ctx, "River Defense Fund")
		require.NoError(t, err)
		assert.Equal(t, 1, savedOrg.FilledPositions)

		savedApplicant, err := store.GetApplicantByExternalID(ctx, "S001")
		require.NoError(t, err)
		assert.True(t, savedApplicant.IsMatched)
	})

	t.Run("no assignment without a recruiting organization", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S001", "Dana", "Okafor")
		testutil.SeedOrganization(t, store, "Tax Clinic", 2, "Tax Law")
		testutil.SeedRankings(t, store, applicant.ID, "Environmental Law")

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.RoundCompleted, round.Status)
		assert.Equal(t, 0, round.MatchedStudents)
	})

	t.Run("organization without open positions gets no assignments", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S001", "Dana", "Okafor")
		testutil.SeedOrganization(t, store, "Full Clinic", 0, "Family Law")
		testutil.SeedRankings(t, store, applicant.ID, "Family Law")

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.RoundCompleted, round.Status)
		assert.Equal(t, 1, round.TotalStudents)
		assert.Equal(t, 0, round.MatchedStudents)

		assignments, err := store.GetAssignmentsByRound(ctx, round.Number)
		require.NoError(t, err)
		assert.Empty(t, assignments)

		savedApplicant, err := store.GetApplicantByExternalID(ctx, "S001")
		require.NoError(t, err)
		assert.False(t, savedApplicant.IsMatched)
	})

	t.Run("capacity is never exceeded", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		a1 := testutil.SeedApplicant(t, store, "S001", "Dana", "Okafor")
		a2 := testutil.SeedApplicant(t, store, "S002", "Ben", "Tran")
		testutil.SeedOrganization(t, store, "Small Clinic", 1, "Immigration")
		testutil.SeedRankings(t, store, a1.ID, "Immigration")
		testutil.SeedRankings(t, store, a2.ID, "Immigration")

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, round.TotalStudents)
		assert.Equal(t, 1, round.MatchedStudents)

		savedOrg, err := store.GetOrganizationByName(ctx, "Small Clinic")
		require.NoError(t, err)
		assert.Equal(t, 1, savedOrg.FilledPositions)
	})

	t.Run("higher grade average wins the contested slot", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		weak := testutil.SeedApplicant(t, store, "S001", "Weak", "Grades")
		strong := testutil.SeedApplicant(t, store, "S002", "Strong", "Grades")
		testutil.SeedOrganization(t, store, "Selective Org", 1, "Criminal Law")
		testutil.SeedRankings(t, store, weak.ID, "Criminal Law")
		testutil.SeedRankings(t, store, strong.ID, "Criminal Law")

		grade := model.NewGrade(strong.ID)
		v, err := model.ParseGradeValue("A+")
		require.NoError(t, err)
		require.NoError(t, grade.Set(model.GradeFieldContracts, v))
		require.NoError(t, store.UpsertGrade(ctx, grade))

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)

		assignments, err := store.GetAssignmentsByRound(ctx, round.Number)
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Equal(t, strong.ID, assignments[0].ApplicantID)
		assert.InDelta(t, 1.0, assignments[0].Breakdown.Grade, 0.0001)
	})

	t.Run("ties break on external ID for determinism", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		first := testutil.SeedApplicant(t, store, "S001", "Tied", "One")
		second := testutil.SeedApplicant(t, store, "S002", "Tied", "Two")
		testutil.SeedOrganization(t, store, "One Slot Org", 1, "Tax Law")
		testutil.SeedRankings(t, store, first.ID, "Tax Law")
		testutil.SeedRankings(t, store, second.ID, "Tax Law")

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)

		assignments, err := store.GetAssignmentsByRound(ctx, round.Number)
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Equal(t, first.ID, assignments[0].ApplicantID)
	})

	t.Run("each applicant assigned at most once", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S001", "Multi", "Area")
		testutil.SeedOrganization(t, store, "Org A", 2, "Tax Law")
		testutil.SeedOrganization(t, store, "Org B", 2, "Immigration")
		testutil.SeedRankings(t, store, applicant.ID, "Tax Law", "Immigration")

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, round.MatchedStudents)

		assignments, err := store.GetAssignmentsByRound(ctx, round.Number)
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		// Rank 1 scores above rank 2, so the first choice wins.
		assert.Equal(t, "Tax Law", assignments[0].AreaOfLaw)
	})

	t.Run("already matched applicants are skipped", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S001", "Already", "Placed")
		require.NoError(t, store.SetApplicantMatched(ctx, applicant.ID, true))
		testutil.SeedOrganization(t, store, "Org", 1, "Tax Law")
		testutil.SeedRankings(t, store, applicant.ID, "Tax Law")

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, round.TotalStudents)
		assert.Equal(t, 0, round.MatchedStudents)
	})

	t.Run("refuses to run alongside a running round", func(t *testing.T) {
		store := testutil.SetupTestDB(t)

		stuck, err := store.CreateRound(ctx)
		require.NoError(t, err)
		stuck.Status = model.RoundRunning
		require.NoError(t, store.UpdateRound(ctx, stuck))

		engine := NewEngine(store, DefaultWeights(), 0)
		_, err = engine.Run(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrRoundRunning)
	})
}

func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("restores capacity and matched flags exactly", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		a1 := testutil.SeedApplicant(t, store, "S001", "Dana", "Okafor")
		a2 := testutil.SeedApplicant(t, store, "S002", "Ben", "Tran")
		testutil.SeedOrganization(t, store, "Busy Org", 2, "Tax Law")
		testutil.SeedRankings(t, store, a1.ID, "Tax Law")
		testutil.SeedRankings(t, store, a2.ID, "Tax Law")

		engine := NewEngine(store, DefaultWeights(), 0)
		round, err := engine.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, round.MatchedStudents)

		require.NoError(t, engine.Reset(ctx, round.Number))

		org, err := store.GetOrganizationByName(ctx, "Busy Org")
		require.NoError(t, err)
		assert.Equal(t, 0, org.FilledPositions)

		for _, externalID := range []string{"S001", "S002"} {
			applicant, err := store.GetApplicantByExternalID(ctx, externalID)
			require.NoError(t, err)
			assert.False(t, applicant.IsMatched, externalID)
		}

		assignments, err := store.GetAssignmentsByRound(ctx, round.Number)
		require.NoError(t, err)
		assert.Empty(t, assignments)
	})

	t.Run("reset round can be matched again", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S001", "Dana", "Okafor")
		testutil.SeedOrganization(t, store, "Org", 1, "Tax Law")
		testutil.SeedRankings(t, store, applicant.ID, "Tax Law")

		engine := NewEngine(store, DefaultWeights(), 0)
		first, err := engine.Run(ctx)
		require.NoError(t, err)
		require.NoError(t, engine.Reset(ctx, first.Number))

		second, err := engine.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.Number+1, second.Number)
		assert.Equal(t, 1, second.MatchedStudents)
	})

	t.Run("unknown round is an error", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		engine := NewEngine(store, DefaultWeights(), 0)
		err := engine.Reset(ctx, 42)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestEngine_StatementScore(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	applicant := testutil.SeedApplicant(t, store, "S001", "Writes", "Well")
	testutil.SeedOrganization(t, store, "Org", 1, "Tax Law")
	testutil.SeedRankings(t, store, applicant.ID, "Tax Law")

	grade := 20
	require.NoError(t, store.UpsertStatement(ctx, &model.Statement{
		ApplicantID: applicant.ID,
		AreaOfLaw:   "Tax Law",
		Content:     "statement",
		Grade:       &grade,
	}))

	engine := NewEngine(store, DefaultWeights(), 25)
	round, err := engine.Run(ctx)
	require.NoError(t, err)

	assignments, err := store.GetAssignmentsByRound(ctx, round.Number)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.InDelta(t, 0.8, assignments[0].Breakdown.Statement, 0.0001)
}

func TestSortCandidates(t *testing.T) {
	orgBig := &model.Organization{ID: 1, AvailablePositions: 5}
	orgSmall := &model.Organization{ID: 2, AvailablePositions: 1}
	a := &model.Applicant{ID: 1, ExternalID: "S001"}
	b := &model.Applicant{ID: 2, ExternalID: "S002"}

	candidates := []candidate{
		{applicant: b, org: orgSmall, rank: 1, remaining: 1, score: 0.5},
		{applicant: a, org: orgBig, rank: 1, remaining: 5, score: 0.5},
		{applicant: a, org: orgSmall, rank: 2, remaining: 1, score: 0.5},
		{applicant: b, org: orgBig, rank: 1, remaining: 5, score: 0.9},
	}
	sortCandidates(candidates)

	// Highest score first, then rank, then remaining capacity, then ID.
	assert.Equal(t, 0.9, candidates[0].score)
	assert.Equal(t, "S001", candidates[1].applicant.ExternalID)
	assert.Equal(t, 5, candidates[1].remaining)
	assert.Equal(t, "S002", candidates[2].applicant.ExternalID)
	assert.Equal(t, 2, candidates[3].rank)
}
