package gradedoc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sail-placements/sail/internal/common"
	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/testutil"
)

func TestExtractor_ProcessText(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves by student ID and extracts fields", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S001", "Dana", "Okafor")
		extractor := NewExtractor(store, "registrar")

		text := "Grade Report\nStudent ID: S001\nContracts: B+\nLRW Case Brief: 18/20\n"
		summary, err := extractor.ProcessText(ctx, "report.pdf", text)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.SuccessCount)
		assert.Empty(t, summary.Errors)

		grade, err := store.GetGrade(ctx, applicant.ID)
		require.NoError(t, err)
		require.NotNil(t, grade)
		assert.Equal(t, "B+", grade.Get(model.GradeFieldContracts).String())
		assert.Equal(t, "18/20", grade.Get(model.GradeFieldLRWCaseBrief).String())
		assert.Nil(t, grade.Get(model.GradeFieldTorts))
	})

	t.Run("falls back to name lookup", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S002", "Ben", "Tran")
		extractor := NewExtractor(store, "registrar")

		text := "Student Name: Ben Tran\nTorts: A-\n"
		summary, err := extractor.ProcessText(ctx, "report.pdf", text)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.SuccessCount)

		grade, err := store.GetGrade(ctx, applicant.ID)
		require.NoError(t, err)
		require.NotNil(t, grade)
		assert.Equal(t, "A-", grade.Get(model.GradeFieldTorts).String())
	})

	t.Run("ambiguous name fails the document", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		testutil.SeedApplicant(t, store, "S003", "Ana", "Silva")
		testutil.SeedApplicant(t, store, "S004", "Ana", "Silva")
		extractor := NewExtractor(store, "registrar")

		text := "Name: Ana Silva\nContracts: B\n"
		summary, err := extractor.ProcessText(ctx, "report.pdf", text)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrApplicantAmbiguous)
		assert.Equal(t, 0, summary.SuccessCount)
		require.Len(t, summary.Errors, 1)
	})

	t.Run("unknown student fails the document", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		extractor := NewExtractor(store, "registrar")

		_, err := extractor.ProcessText(ctx, "report.pdf", "Student ID: S999\nContracts: B\n")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrApplicantNotFound)
	})

	t.Run("document without identifier fails", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		extractor := NewExtractor(store, "registrar")

		_, err := extractor.ProcessText(ctx, "report.pdf", "Contracts: B+\nTorts: A\n")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrNoIdentifier)
	})

	t.Run("invalid token recorded without losing valid fields", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S005", "Maya", "Chen")
		extractor := NewExtractor(store, "registrar")

		text := "Student ID: S005\nContracts: Pass\nTorts: B-\n"
		summary, err := extractor.ProcessText(ctx, "report.pdf", text)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.SuccessCount)
		require.Len(t, summary.Errors, 1)
		assert.Contains(t, summary.Errors[0].Message, "invalid grade")

		grade, err := store.GetGrade(ctx, applicant.ID)
		require.NoError(t, err)
		require.NotNil(t, grade)
		assert.Nil(t, grade.Get(model.GradeFieldContracts))
		assert.Equal(t, "B-", grade.Get(model.GradeFieldTorts).String())
	})

	t.Run("document with no recognizable fields fails", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		testutil.SeedApplicant(t, store, "S006", "Leo", "Park")
		extractor := NewExtractor(store, "registrar")

		_, err := extractor.ProcessText(ctx, "report.pdf", "Student ID: S006\nNothing gradable here.\n")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrNoFieldsExtracted)
	})

	t.Run("later documents merge instead of overwrite", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		applicant := testutil.SeedApplicant(t, store, "S007", "Ira", "Wolfe")
		extractor := NewExtractor(store, "registrar")

		_, err := extractor.ProcessText(ctx, "first.pdf", "Student ID: S007\nContracts: C+\nTorts: B\n")
		require.NoError(t, err)

		_, err = extractor.ProcessText(ctx, "second.pdf", "Student ID: S007\nContracts: A-\n")
		require.NoError(t, err)

		grade, err := store.GetGrade(ctx, applicant.ID)
		require.NoError(t, err)
		require.NotNil(t, grade)
		assert.Equal(t, "A-", grade.Get(model.GradeFieldContracts).String())
		assert.Equal(t, "B", grade.Get(model.GradeFieldTorts).String())
	})

	t.Run("every document writes one audit entry", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		testutil.SeedApplicant(t, store, "S008", "Noa", "Levi")
		extractor := NewExtractor(store, "registrar")

		_, err := extractor.ProcessText(ctx, "good.pdf", "Student ID: S008\nContracts: B\n")
		require.NoError(t, err)
		_, err = extractor.ProcessText(ctx, "bad.pdf", "no identifier at all")
		require.Error(t, err)

		logs, err := store.GetImportLogs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		for _, l := range logs {
			assert.Equal(t, model.ImportKindDocument, l.Kind)
		}
	})
}

func TestFieldPatterns(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
		token string
	}{
		{name: "colon separator", text: "Constitutional Law: A-", field: model.GradeFieldConstitutionalLaw, token: "A-"},
		{name: "dash separator", text: "Criminal Law - B+", field: model.GradeFieldCriminalLaw, token: "B+"},
		{name: "no separator", text: "Torts B", field: model.GradeFieldTorts, token: "B"},
		{name: "fraction grade", text: "Short Memo: 14/20", field: model.GradeFieldLRWShortMemo, token: "14/20"},
		{name: "lrw prefix", text: "LRW: Multiple Case Analysis: 16/20", field: model.GradeFieldLRWMultipleCase, token: "16/20"},
		{name: "bare property", text: "Property: B-", field: model.GradeFieldPropertyLaw, token: "B-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := fieldPatterns[tt.field].FindStringSubmatch(tt.text)
			require.NotNil(t, match)
			assert.Equal(t, tt.token, match[1])
		})
	}
}
