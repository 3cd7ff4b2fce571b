package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, so every query helper can
// run either standalone or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: SQLite serializes writers anyway, and one connection
	// keeps in-memory databases coherent across goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction. Every
// store method delegates to the shared query helpers with the transaction as
// the executor.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) GetApplicantByExternalID(ctx context.Context, externalID string) (*model.Applicant, error) {
	return t.storage.getApplicantByExternalID(ctx, t.tx, externalID)
}

func (t *sqliteTransaction) FindApplicantsByName(ctx context.Context, firstName, lastName string) ([]model.Applicant, error) {
	return t.storage.findApplicantsByName(ctx, t.tx, firstName, lastName)
}

func (t *sqliteTransaction) SaveApplicant(ctx context.Context, applicant *model.Applicant) error {
	return t.storage.saveApplicant(ctx, t.tx, applicant)
}

func (t *sqliteTransaction) GetApplicants(ctx context.Context, filter service.ApplicantFilter) ([]model.Applicant, error) {
	return t.storage.getApplicants(ctx, t.tx, filter)
}

func (t *sqliteTransaction) SetApplicantMatched(ctx context.Context, applicantID int64, matched bool) error {
	return t.storage.setApplicantMatched(ctx, t.tx, applicantID, matched)
}

func (t *sqliteTransaction) GetOrganizationByName(ctx context.Context, name string) (*model.Organization, error) {
	return t.storage.getOrganizationByName(ctx, t.tx, name)
}

func (t *sqliteTransaction) SaveOrganization(ctx context.Context, org *model.Organization) error {
	return t.storage.saveOrganization(ctx, t.tx, org)
}

func (t *sqliteTransaction) GetOrganizations(ctx context.Context, filter service.OrganizationFilter) ([]model.Organization, error) {
	return t.storage.getOrganizations(ctx, t.tx, filter)
}

func (t *sqliteTransaction) AdjustFilledPositions(ctx context.Context, orgID int64, delta int) error {
	return t.storage.adjustFilledPositions(ctx, t.tx, orgID, delta)
}

func (t *sqliteTransaction) ReplaceAreaRankings(ctx context.Context, applicantID int64, rankings []model.AreaRanking) error {
	return t.storage.replaceAreaRankings(ctx, t.tx, applicantID, rankings)
}

func (t *sqliteTransaction) GetAreaRankings(ctx context.Context, applicantID int64) ([]model.AreaRanking, error) {
	return t.storage.getAreaRankings(ctx, t.tx, applicantID)
}

func (t *sqliteTransaction) UpsertStatement(ctx context.Context, statement *model.Statement) error {
	return t.storage.upsertStatement(ctx, t.tx, statement)
}

func (t *sqliteTransaction) GetStatement(ctx context.Context, applicantID int64, areaOfLaw string) (*model.Statement, error) {
	return t.storage.getStatement(ctx, t.tx, applicantID, areaOfLaw)
}

func (t *sqliteTransaction) GetStatements(ctx context.Context, applicantID int64) ([]model.Statement, error) {
	return t.storage.getStatements(ctx, t.tx, applicantID)
}

func (t *sqliteTransaction) GetGrade(ctx context.Context, applicantID int64) (*model.Grade, error) {
	return t.storage.getGrade(ctx, t.tx, applicantID)
}

func (t *sqliteTransaction) UpsertGrade(ctx context.Context, grade *model.Grade) error {
	return t.storage.upsertGrade(ctx, t.tx, grade)
}

func (t *sqliteTransaction) SaveAssignment(ctx context.Context, assignment *model.MatchAssignment) error {
	return t.storage.saveAssignment(ctx, t.tx, assignment)
}

func (t *sqliteTransaction) GetAssignmentsByRound(ctx context.Context, roundNumber int) ([]model.MatchAssignment, error) {
	return t.storage.getAssignmentsByRound(ctx, t.tx, roundNumber)
}

func (t *sqliteTransaction) UpdateAssignmentStatus(ctx context.Context, assignmentID int64, status model.AssignmentStatus) error {
	return t.storage.updateAssignmentStatus(ctx, t.tx, assignmentID, status)
}

func (t *sqliteTransaction) DeleteAssignmentsByRound(ctx context.Context, roundNumber int) error {
	return t.storage.deleteAssignmentsByRound(ctx, t.tx, roundNumber)
}

func (t *sqliteTransaction) CreateRound(ctx context.Context) (*model.MatchingRound, error) {
	return t.storage.createRound(ctx, t.tx)
}

func (t *sqliteTransaction) UpdateRound(ctx context.Context, round *model.MatchingRound) error {
	return t.storage.updateRound(ctx, t.tx, round)
}

func (t *sqliteTransaction) GetRound(ctx context.Context, number int) (*model.MatchingRound, error) {
	return t.storage.getRound(ctx, t.tx, number)
}

func (t *sqliteTransaction) GetRounds(ctx context.Context) ([]model.MatchingRound, error) {
	return t.storage.getRounds(ctx, t.tx)
}

func (t *sqliteTransaction) GetRunningRound(ctx context.Context) (*model.MatchingRound, error) {
	return t.storage.getRunningRound(ctx, t.tx)
}

func (t *sqliteTransaction) SaveImportLog(ctx context.Context, log *model.ImportLog) error {
	return t.storage.saveImportLog(ctx, t.tx, log)
}

func (t *sqliteTransaction) GetImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error) {
	return t.storage.getImportLogs(ctx, t.tx, limit)
}

// nullTime converts an optional time for storage.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
