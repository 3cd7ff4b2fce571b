package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sail-placements/sail/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)

	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func seedApplicant(t *testing.T, store *SQLiteStorage, externalID string) *model.Applicant {
	t.Helper()

	ctx := context.Background()
	applicant := &model.Applicant{
		ExternalID: externalID,
		FirstName:  "Test",
		LastName:   "Student",
		IsActive:   true,
	}
	require.NoError(t, store.SaveApplicant(ctx, applicant))

	saved, err := store.GetApplicantByExternalID(ctx, externalID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	return saved
}

func TestSaveApplicant(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts by external ID", func(t *testing.T) {
		store := newTestStorage(t)

		first := &model.Applicant{ExternalID: "S001", FirstName: "Dana", LastName: "Okafor", IsActive: true}
		require.NoError(t, store.SaveApplicant(ctx, first))

		second := &model.Applicant{ExternalID: "S001", FirstName: "Dana", LastName: "Okafor-Reyes", IsActive: true}
		require.NoError(t, store.SaveApplicant(ctx, second))

		saved, err := store.GetApplicantByExternalID(ctx, "S001")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "Okafor-Reyes", saved.LastName)
		assert.Equal(t, first.ID, saved.ID)
	})

	t.Run("unknown external ID returns nil", func(t *testing.T) {
		store := newTestStorage(t)
		applicant, err := store.GetApplicantByExternalID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, applicant)
	})

	t.Run("round-trips preferences and self-proposed externship", func(t *testing.T) {
		store := newTestStorage(t)

		applicant := &model.Applicant{
			ExternalID:          "S002",
			FirstName:           "Maya",
			LastName:            "Chen",
			LocationPreferences: []string{"Sacramento", "Davis"},
			WorkModePreferences: []model.WorkMode{model.WorkModeHybrid, model.WorkModeRemote},
			SelfProposed: &model.SelfProposedExternship{
				Organization:    "River Defense Fund",
				Supervisor:      "Sam Lee",
				SupervisorEmail: "sam@rdf.example.org",
			},
			NeedsApproval: true,
			IsActive:      true,
		}
		require.NoError(t, store.SaveApplicant(ctx, applicant))

		saved, err := store.GetApplicantByExternalID(ctx, "S002")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, applicant.LocationPreferences, saved.LocationPreferences)
		assert.Equal(t, applicant.WorkModePreferences, saved.WorkModePreferences)
		require.NotNil(t, saved.SelfProposed)
		assert.Equal(t, "River Defense Fund", saved.SelfProposed.Organization)
		assert.True(t, saved.NeedsApproval)
	})
}

func TestFindApplicantsByName(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.SaveApplicant(ctx, &model.Applicant{ExternalID: "S001", FirstName: "Dana", LastName: "Okafor", IsActive: true}))
	require.NoError(t, store.SaveApplicant(ctx, &model.Applicant{ExternalID: "S002", FirstName: "dana", LastName: "OKAFOR", IsActive: true}))
	require.NoError(t, store.SaveApplicant(ctx, &model.Applicant{ExternalID: "S003", FirstName: "Ben", LastName: "Tran", IsActive: true}))

	t.Run("case-insensitive match", func(t *testing.T) {
		found, err := store.FindApplicantsByName(ctx, "DANA", "okafor")
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("single match", func(t *testing.T) {
		found, err := store.FindApplicantsByName(ctx, "Ben", "Tran")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "S003", found[0].ExternalID)
	})

	t.Run("no match", func(t *testing.T) {
		found, err := store.FindApplicantsByName(ctx, "Nobody", "Here")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestAdjustFilledPositions(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	org := &model.Organization{Name: "Capacity Test Org", AvailablePositions: 2, IsActive: true}
	require.NoError(t, store.SaveOrganization(ctx, org))

	require.NoError(t, store.AdjustFilledPositions(ctx, org.ID, 1))
	require.NoError(t, store.AdjustFilledPositions(ctx, org.ID, 1))

	t.Run("increment past capacity rejected", func(t *testing.T) {
		err := store.AdjustFilledPositions(ctx, org.ID, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCapacityExceeded)

		saved, getErr := store.GetOrganizationByName(ctx, "Capacity Test Org")
		require.NoError(t, getErr)
		assert.Equal(t, 2, saved.FilledPositions)
	})

	t.Run("decrement below zero rejected", func(t *testing.T) {
		require.NoError(t, store.AdjustFilledPositions(ctx, org.ID, -2))
		err := store.AdjustFilledPositions(ctx, org.ID, -1)
		require.Error(t, err)

		saved, getErr := store.GetOrganizationByName(ctx, "Capacity Test Org")
		require.NoError(t, getErr)
		assert.Equal(t, 0, saved.FilledPositions)
	})
}

func TestUpsertGrade(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	applicant := seedApplicant(t, store, "S010")

	mustGrade := func(token string) *model.GradeValue {
		v, err := model.ParseGradeValue(token)
		require.NoError(t, err)
		return v
	}

	first := model.NewGrade(applicant.ID)
	require.NoError(t, first.Set(model.GradeFieldContracts, mustGrade("B+")))
	require.NoError(t, first.Set(model.GradeFieldTorts, mustGrade("A-")))
	require.NoError(t, store.UpsertGrade(ctx, first))

	// A later document carrying only one field updates that field and leaves
	// the rest alone.
	second := model.NewGrade(applicant.ID)
	require.NoError(t, second.Set(model.GradeFieldContracts, mustGrade("A")))
	require.NoError(t, store.UpsertGrade(ctx, second))

	saved, err := store.GetGrade(ctx, applicant.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "A", saved.Get(model.GradeFieldContracts).String())
	assert.Equal(t, "A-", saved.Get(model.GradeFieldTorts).String())
	assert.Nil(t, saved.Get(model.GradeFieldCriminalLaw))
}

func TestUpsertStatement(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	applicant := seedApplicant(t, store, "S011")

	stmt := &model.Statement{ApplicantID: applicant.ID, AreaOfLaw: "Tax Law", Content: "original"}
	require.NoError(t, store.UpsertStatement(ctx, stmt))

	grade := 21
	graded := &model.Statement{ApplicantID: applicant.ID, AreaOfLaw: "Tax Law", Content: "revised", Grade: &grade}
	require.NoError(t, store.UpsertStatement(ctx, graded))

	// A regrade-free update keeps the existing grade.
	ungraded := &model.Statement{ApplicantID: applicant.ID, AreaOfLaw: "Tax Law", Content: "revised again"}
	require.NoError(t, store.UpsertStatement(ctx, ungraded))

	saved, err := store.GetStatement(ctx, applicant.ID, "Tax Law")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "revised again", saved.Content)
	require.NotNil(t, saved.Grade)
	assert.Equal(t, 21, *saved.Grade)
}

func TestReplaceAreaRankings(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	applicant := seedApplicant(t, store, "S012")

	require.NoError(t, store.ReplaceAreaRankings(ctx, applicant.ID, []model.AreaRanking{
		{ApplicantID: applicant.ID, AreaOfLaw: "Tax Law", Rank: 1},
		{ApplicantID: applicant.ID, AreaOfLaw: "Immigration", Rank: 2},
	}))

	require.NoError(t, store.ReplaceAreaRankings(ctx, applicant.ID, []model.AreaRanking{
		{ApplicantID: applicant.ID, AreaOfLaw: "Criminal Law", Rank: 1},
	}))

	rankings, err := store.GetAreaRankings(ctx, applicant.ID)
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, "Criminal Law", rankings[0].AreaOfLaw)
	assert.Equal(t, 1, rankings[0].Rank)
}

func TestRoundLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	first, err := store.CreateRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, model.RoundPending, first.Status)

	second, err := store.CreateRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)

	first.Status = model.RoundRunning
	require.NoError(t, store.UpdateRound(ctx, first))

	running, err := store.GetRunningRound(ctx)
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, 1, running.Number)

	first.Status = model.RoundCompleted
	first.MatchedStudents = 7
	require.NoError(t, store.UpdateRound(ctx, first))

	t.Run("completed rounds are immutable", func(t *testing.T) {
		first.MatchedStudents = 99
		err := store.UpdateRound(ctx, first)
		require.Error(t, err)

		saved, getErr := store.GetRound(ctx, 1)
		require.NoError(t, getErr)
		assert.Equal(t, 7, saved.MatchedStudents)
	})

	t.Run("no running round after completion", func(t *testing.T) {
		running, err := store.GetRunningRound(ctx)
		require.NoError(t, err)
		assert.Nil(t, running)
	})
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.SaveApplicant(ctx, &model.Applicant{ExternalID: "S020", FirstName: "Rolled", LastName: "Back", IsActive: true}))
	require.NoError(t, tx.Rollback())

	applicant, err := store.GetApplicantByExternalID(ctx, "S020")
	require.NoError(t, err)
	assert.Nil(t, applicant)
}

func TestImportLogs(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	log := &model.ImportLog{
		FileName:     "students.csv",
		Kind:         model.ImportKindTabular,
		ImportedBy:   "registrar",
		SuccessCount: 12,
		ErrorCount:   1,
		Errors: []model.ImportError{
			{RowIndex: 3, Message: "invalid email format: nope"},
		},
	}
	require.NoError(t, store.SaveImportLog(ctx, log))

	logs, err := store.GetImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "students.csv", logs[0].FileName)
	assert.Equal(t, 12, logs[0].SuccessCount)
	require.Len(t, logs[0].Errors, 1)
	assert.Equal(t, 3, logs[0].Errors[0].RowIndex)
}
