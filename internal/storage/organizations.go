package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/service"
)

const organizationColumns = `id, name, description, location, email, phone, website, requirements,
	work_mode, areas_of_law, available_positions, filled_positions, is_active, created_at, updated_at`

// GetOrganizationByName returns the organization with the given name, or nil
// when none exists.
func (s *SQLiteStorage) GetOrganizationByName(ctx context.Context, name string) (*model.Organization, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getOrganizationByName(ctx, s.db, name)
}

func (s *SQLiteStorage) getOrganizationByName(ctx context.Context, q dbtx, name string) (*model.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE name = ?`
	org, err := scanOrganization(q.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query organization: %w", err)
	}
	return org, nil
}

// SaveOrganization upserts an organization keyed by name. The organization's
// ID field is populated on return.
func (s *SQLiteStorage) SaveOrganization(ctx context.Context, org *model.Organization) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.saveOrganization(ctx, s.db, org)
}

func (s *SQLiteStorage) saveOrganization(ctx context.Context, q dbtx, org *model.Organization) error {
	if err := validateOrganization(org); err != nil {
		return err
	}

	areas, err := marshalList(org.AreasOfLaw)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO organizations (
			name, description, location, email, phone, website, requirements,
			work_mode, areas_of_law, available_positions, filled_positions, is_active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			location = excluded.location,
			email = excluded.email,
			phone = excluded.phone,
			website = excluded.website,
			requirements = excluded.requirements,
			work_mode = excluded.work_mode,
			areas_of_law = excluded.areas_of_law,
			available_positions = excluded.available_positions,
			filled_positions = excluded.filled_positions,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`

	if _, err := q.ExecContext(ctx, query,
		org.Name, org.Description, org.Location, org.Email, org.Phone, org.Website,
		org.Requirements, string(org.WorkMode), areas,
		org.AvailablePositions, org.FilledPositions, org.IsActive,
		now, now,
	); err != nil {
		return fmt.Errorf("failed to save organization %q: %w", org.Name, err)
	}

	var id int64
	if err := q.QueryRowContext(ctx,
		`SELECT id FROM organizations WHERE name = ?`, org.Name,
	).Scan(&id); err != nil {
		return fmt.Errorf("failed to resolve organization ID: %w", err)
	}
	org.ID = id
	org.UpdatedAt = now

	slog.Debug("saved organization", "name", org.Name, "id", id)
	return nil
}

// GetOrganizations returns organizations matching the filter, ordered by name.
func (s *SQLiteStorage) GetOrganizations(ctx context.Context, filter service.OrganizationFilter) ([]model.Organization, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getOrganizations(ctx, s.db, filter)
}

func (s *SQLiteStorage) getOrganizations(ctx context.Context, q dbtx, filter service.OrganizationFilter) ([]model.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE 1=1`
	if filter.OnlyActive {
		query += ` AND is_active = 1`
	}
	if filter.OnlyWithCapacity {
		query += ` AND filled_positions < available_positions`
	}
	query += ` ORDER BY name`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orgs []model.Organization
	for rows.Next() {
		org, scanErr := scanOrganization(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", scanErr)
		}
		// Area filtering happens on the decoded list; areas are stored as a
		// JSON column, not a join table.
		if filter.AreaOfLaw != "" && !org.RecruitsFor(filter.AreaOfLaw) {
			continue
		}
		orgs = append(orgs, *org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}
	return orgs, nil
}

// AdjustFilledPositions changes an organization's filled position count by
// delta. The capacity invariant is enforced here and by a CHECK constraint.
func (s *SQLiteStorage) AdjustFilledPositions(ctx context.Context, orgID int64, delta int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.adjustFilledPositions(ctx, s.db, orgID, delta)
}

func (s *SQLiteStorage) adjustFilledPositions(ctx context.Context, q dbtx, orgID int64, delta int) error {
	result, err := q.ExecContext(ctx, `
		UPDATE organizations
		SET filled_positions = filled_positions + ?, updated_at = ?
		WHERE id = ?
		  AND filled_positions + ? >= 0
		  AND filled_positions + ? <= available_positions`,
		delta, time.Now().UTC(), orgID, delta, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust filled positions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("organization %d: %w", orgID, ErrCapacityExceeded)
	}
	return nil
}

func scanOrganization(row rowScanner) (*model.Organization, error) {
	var o model.Organization
	var description, location, email, phone, website, requirements, workMode sql.NullString
	var areas sql.NullString

	err := row.Scan(
		&o.ID, &o.Name, &description, &location, &email, &phone, &website, &requirements,
		&workMode, &areas, &o.AvailablePositions, &o.FilledPositions, &o.IsActive,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Description = description.String
	o.Location = location.String
	o.Email = email.String
	o.Phone = phone.String
	o.Website = website.String
	o.Requirements = requirements.String
	o.WorkMode = model.WorkMode(workMode.String)

	if o.AreasOfLaw, err = unmarshalList(areas); err != nil {
		return nil, err
	}
	return &o, nil
}
