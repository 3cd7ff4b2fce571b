package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/service"
)

// marshalList serializes a string list column. Empty lists are stored as NULL.
func marshalList(items []string) (any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(data), nil
}

func unmarshalList(data sql.NullString) ([]string, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(data.String), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal list: %w", err)
	}
	return items, nil
}

const applicantColumns = `id, external_id, first_name, last_name, email, backup_email, program,
	location_preferences, work_preferences,
	sp_organization, sp_supervisor, sp_supervisor_email, sp_address, sp_website,
	is_matched, needs_approval, is_active, created_at, updated_at`

// GetApplicantByExternalID returns the applicant with the given external
// identifier, or nil when none exists.
func (s *SQLiteStorage) GetApplicantByExternalID(ctx context.Context, externalID string) (*model.Applicant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(externalID, "externalID"); err != nil {
		return nil, err
	}
	return s.getApplicantByExternalID(ctx, s.db, externalID)
}

func (s *SQLiteStorage) getApplicantByExternalID(ctx context.Context, q dbtx, externalID string) (*model.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE external_id = ?`
	applicant, err := scanApplicant(q.QueryRowContext(ctx, query, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query applicant: %w", err)
	}
	return applicant, nil
}

// FindApplicantsByName returns applicants matching the exact first and last
// name, case-insensitively. Used as the document-extraction fallback lookup.
func (s *SQLiteStorage) FindApplicantsByName(ctx context.Context, firstName, lastName string) ([]model.Applicant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.findApplicantsByName(ctx, s.db, firstName, lastName)
}

func (s *SQLiteStorage) findApplicantsByName(ctx context.Context, q dbtx, firstName, lastName string) ([]model.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants
		WHERE first_name = ? COLLATE NOCASE AND last_name = ? COLLATE NOCASE
		ORDER BY external_id`

	rows, err := q.QueryContext(ctx, query, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("failed to query applicants by name: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectApplicants(rows)
}

// SaveApplicant upserts an applicant keyed by external ID. The applicant's
// ID field is populated on return.
func (s *SQLiteStorage) SaveApplicant(ctx context.Context, applicant *model.Applicant) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateApplicant(applicant); err != nil {
		return err
	}
	return s.saveApplicant(ctx, s.db, applicant)
}

func (s *SQLiteStorage) saveApplicant(ctx context.Context, q dbtx, applicant *model.Applicant) error {
	if err := validateApplicant(applicant); err != nil {
		return err
	}

	locations, err := marshalList(applicant.LocationPreferences)
	if err != nil {
		return err
	}
	modes := make([]string, len(applicant.WorkModePreferences))
	for i, m := range applicant.WorkModePreferences {
		modes[i] = string(m)
	}
	workModes, err := marshalList(modes)
	if err != nil {
		return err
	}

	sp := applicant.SelfProposed
	if sp == nil {
		sp = &model.SelfProposedExternship{}
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO applicants (
			external_id, first_name, last_name, email, backup_email, program,
			location_preferences, work_preferences,
			sp_organization, sp_supervisor, sp_supervisor_email, sp_address, sp_website,
			is_matched, needs_approval, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			backup_email = excluded.backup_email,
			program = excluded.program,
			location_preferences = excluded.location_preferences,
			work_preferences = excluded.work_preferences,
			sp_organization = excluded.sp_organization,
			sp_supervisor = excluded.sp_supervisor,
			sp_supervisor_email = excluded.sp_supervisor_email,
			sp_address = excluded.sp_address,
			sp_website = excluded.sp_website,
			is_matched = excluded.is_matched,
			needs_approval = excluded.needs_approval,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`

	if _, err := q.ExecContext(ctx, query,
		applicant.ExternalID, applicant.FirstName, applicant.LastName,
		applicant.Email, applicant.BackupEmail, applicant.Program,
		locations, workModes,
		sp.Organization, sp.Supervisor, sp.SupervisorEmail, sp.Address, sp.Website,
		applicant.IsMatched, applicant.NeedsApproval, applicant.IsActive,
		now, now,
	); err != nil {
		return fmt.Errorf("failed to save applicant %s: %w", applicant.ExternalID, err)
	}

	// Read back the row ID so callers can reference related records.
	var id int64
	if err := q.QueryRowContext(ctx,
		`SELECT id FROM applicants WHERE external_id = ?`, applicant.ExternalID,
	).Scan(&id); err != nil {
		return fmt.Errorf("failed to resolve applicant ID: %w", err)
	}
	applicant.ID = id
	applicant.UpdatedAt = now

	slog.Debug("saved applicant", "external_id", applicant.ExternalID, "id", id)
	return nil
}

// GetApplicants returns applicants matching the filter, ordered by external ID.
func (s *SQLiteStorage) GetApplicants(ctx context.Context, filter service.ApplicantFilter) ([]model.Applicant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getApplicants(ctx, s.db, filter)
}

func (s *SQLiteStorage) getApplicants(ctx context.Context, q dbtx, filter service.ApplicantFilter) ([]model.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE 1=1`
	var args []any

	if filter.OnlyActive {
		query += ` AND is_active = 1`
	}
	if filter.OnlyUnmatched {
		query += ` AND is_matched = 0`
	}
	query += ` ORDER BY external_id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applicants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectApplicants(rows)
}

// SetApplicantMatched flips the matched flag for one applicant.
func (s *SQLiteStorage) SetApplicantMatched(ctx context.Context, applicantID int64, matched bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setApplicantMatched(ctx, s.db, applicantID, matched)
}

func (s *SQLiteStorage) setApplicantMatched(ctx context.Context, q dbtx, applicantID int64, matched bool) error {
	result, err := q.ExecContext(ctx,
		`UPDATE applicants SET is_matched = ?, updated_at = ? WHERE id = ?`,
		matched, time.Now().UTC(), applicantID)
	if err != nil {
		return fmt.Errorf("failed to update matched flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("applicant %d: %w", applicantID, sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplicant(row rowScanner) (*model.Applicant, error) {
	var a model.Applicant
	var email, backupEmail, program sql.NullString
	var locations, workModes sql.NullString
	var spOrg, spSup, spEmail, spAddr, spWeb sql.NullString

	err := row.Scan(
		&a.ID, &a.ExternalID, &a.FirstName, &a.LastName, &email, &backupEmail, &program,
		&locations, &workModes,
		&spOrg, &spSup, &spEmail, &spAddr, &spWeb,
		&a.IsMatched, &a.NeedsApproval, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Email = email.String
	a.BackupEmail = backupEmail.String
	a.Program = program.String

	if a.LocationPreferences, err = unmarshalList(locations); err != nil {
		return nil, err
	}
	modes, err := unmarshalList(workModes)
	if err != nil {
		return nil, err
	}
	for _, m := range modes {
		a.WorkModePreferences = append(a.WorkModePreferences, model.WorkMode(m))
	}

	if spOrg.String != "" || spSup.String != "" || spEmail.String != "" || spAddr.String != "" || spWeb.String != "" {
		a.SelfProposed = &model.SelfProposedExternship{
			Organization:    spOrg.String,
			Supervisor:      spSup.String,
			SupervisorEmail: spEmail.String,
			Address:         spAddr.String,
			Website:         spWeb.String,
		}
	}

	return &a, nil
}

func collectApplicants(rows *sql.Rows) ([]model.Applicant, error) {
	var applicants []model.Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		applicants = append(applicants, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applicants: %w", err)
	}
	return applicants, nil
}
