// Package testutil provides shared helpers for tests that need a migrated
// database and seeded records.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/service"
	"github.com/sail-placements/sail/internal/storage"
)

// SetupTestDB creates an in-memory database with migrations applied and
// cleanup registered.
func SetupTestDB(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedApplicant inserts a minimal active applicant and returns it reloaded,
// so the caller has its database ID.
func SeedApplicant(t *testing.T, store service.Storage, externalID, firstName, lastName string) *model.Applicant {
	t.Helper()

	applicant := &model.Applicant{
		ExternalID: externalID,
		FirstName:  firstName,
		LastName:   lastName,
		Email:      fmt.Sprintf("%s@law.example.edu", externalID),
		IsActive:   true,
	}
	if err := store.SaveApplicant(context.Background(), applicant); err != nil {
		t.Fatalf("failed to seed applicant %s: %v", externalID, err)
	}

	saved, err := store.GetApplicantByExternalID(context.Background(), externalID)
	if err != nil {
		t.Fatalf("failed to reload applicant %s: %v", externalID, err)
	}
	if saved == nil {
		t.Fatalf("seeded applicant %s not found", externalID)
	}
	return saved
}

// SeedOrganization inserts an active organization recruiting for the given
// areas and returns it reloaded.
func SeedOrganization(t *testing.T, store service.Storage, name string, positions int, areas ...string) *model.Organization {
	t.Helper()

	org := &model.Organization{
		Name:               name,
		AreasOfLaw:         areas,
		AvailablePositions: positions,
		IsActive:           true,
	}
	if err := store.SaveOrganization(context.Background(), org); err != nil {
		t.Fatalf("failed to seed organization %s: %v", name, err)
	}

	saved, err := store.GetOrganizationByName(context.Background(), name)
	if err != nil {
		t.Fatalf("failed to reload organization %s: %v", name, err)
	}
	if saved == nil {
		t.Fatalf("seeded organization %s not found", name)
	}
	return saved
}

// SeedRankings replaces the applicant's area rankings with the given areas in
// rank order.
func SeedRankings(t *testing.T, store service.Storage, applicantID int64, areas ...string) {
	t.Helper()

	rankings := make([]model.AreaRanking, len(areas))
	for i, area := range areas {
		rankings[i] = model.AreaRanking{
			ApplicantID: applicantID,
			AreaOfLaw:   area,
			Rank:        i + 1,
		}
	}
	if err := store.ReplaceAreaRankings(context.Background(), applicantID, rankings); err != nil {
		t.Fatalf("failed to seed rankings: %v", err)
	}
}
