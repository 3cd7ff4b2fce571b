// Package service defines the interfaces shared by the application services.
package service

import (
	"context"
	"time"

	"github.com/sail-placements/sail/internal/model"
)

// ApplicantFilter narrows applicant queries.
type ApplicantFilter struct {
	OnlyActive    bool
	OnlyUnmatched bool
	Limit         int
}

// OrganizationFilter narrows organization queries.
type OrganizationFilter struct {
	AreaOfLaw        string
	OnlyActive       bool
	OnlyWithCapacity bool
}

// Store is the data-operation surface of the persistence layer. It is
// available both on Storage and inside a Transaction.
type Store interface {
	// Applicant operations
	GetApplicantByExternalID(ctx context.Context, externalID string) (*model.Applicant, error)
	FindApplicantsByName(ctx context.Context, firstName, lastName string) ([]model.Applicant, error)
	SaveApplicant(ctx context.Context, applicant *model.Applicant) error
	GetApplicants(ctx context.Context, filter ApplicantFilter) ([]model.Applicant, error)
	SetApplicantMatched(ctx context.Context, applicantID int64, matched bool) error

	// Organization operations
	GetOrganizationByName(ctx context.Context, name string) (*model.Organization, error)
	SaveOrganization(ctx context.Context, org *model.Organization) error
	GetOrganizations(ctx context.Context, filter OrganizationFilter) ([]model.Organization, error)
	AdjustFilledPositions(ctx context.Context, orgID int64, delta int) error

	// Area ranking operations
	ReplaceAreaRankings(ctx context.Context, applicantID int64, rankings []model.AreaRanking) error
	GetAreaRankings(ctx context.Context, applicantID int64) ([]model.AreaRanking, error)

	// Statement operations
	UpsertStatement(ctx context.Context, statement *model.Statement) error
	GetStatement(ctx context.Context, applicantID int64, areaOfLaw string) (*model.Statement, error)
	GetStatements(ctx context.Context, applicantID int64) ([]model.Statement, error)

	// Grade operations
	GetGrade(ctx context.Context, applicantID int64) (*model.Grade, error)
	UpsertGrade(ctx context.Context, grade *model.Grade) error

	// Assignment operations
	SaveAssignment(ctx context.Context, assignment *model.MatchAssignment) error
	GetAssignmentsByRound(ctx context.Context, roundNumber int) ([]model.MatchAssignment, error)
	UpdateAssignmentStatus(ctx context.Context, assignmentID int64, status model.AssignmentStatus) error
	DeleteAssignmentsByRound(ctx context.Context, roundNumber int) error

	// Round operations
	CreateRound(ctx context.Context) (*model.MatchingRound, error)
	UpdateRound(ctx context.Context, round *model.MatchingRound) error
	GetRound(ctx context.Context, number int) (*model.MatchingRound, error)
	GetRounds(ctx context.Context) ([]model.MatchingRound, error)
	GetRunningRound(ctx context.Context) (*model.MatchingRound, error)

	// Import log operations
	SaveImportLog(ctx context.Context, log *model.ImportLog) error
	GetImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error)
}

// Storage is the full contract for the persistence layer.
type Storage interface {
	Store

	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction scopes a group of store operations to one commit.
type Transaction interface {
	Store

	Commit() error
	Rollback() error
}

// ImportSummary is what every ingestion run returns: a success count plus a
// structured, enumerable error list. Partial success is always
// distinguishable from total failure.
type ImportSummary struct {
	FileName     string
	Errors       []model.ImportError
	Touched      []string
	SuccessCount int
}

// Touch records the key of a successfully imported record.
func (s *ImportSummary) Touch(key string) {
	s.Touched = append(s.Touched, key)
}

// Failed reports whether nothing at all was imported.
func (s *ImportSummary) Failed() bool {
	return s.SuccessCount == 0 && len(s.Errors) > 0
}

// RetryOptions configures retry behavior for storage operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
