package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS applicants (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					external_id TEXT UNIQUE NOT NULL,
					first_name TEXT NOT NULL DEFAULT '',
					last_name TEXT NOT NULL DEFAULT '',
					email TEXT,
					backup_email TEXT,
					program TEXT,
					location_preferences TEXT,
					work_preferences TEXT,
					sp_organization TEXT,
					sp_supervisor TEXT,
					sp_supervisor_email TEXT,
					sp_address TEXT,
					sp_website TEXT,
					is_matched INTEGER NOT NULL DEFAULT 0,
					needs_approval INTEGER NOT NULL DEFAULT 0,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_applicants_name ON applicants(first_name, last_name)`,

				`CREATE TABLE IF NOT EXISTS organizations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					description TEXT,
					location TEXT,
					email TEXT,
					phone TEXT,
					website TEXT,
					requirements TEXT,
					work_mode TEXT,
					areas_of_law TEXT,
					available_positions INTEGER NOT NULL DEFAULT 0 CHECK (available_positions >= 0),
					filled_positions INTEGER NOT NULL DEFAULT 0 CHECK (filled_positions >= 0 AND filled_positions <= available_positions),
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS area_rankings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					applicant_id INTEGER NOT NULL,
					area_of_law TEXT NOT NULL,
					rank INTEGER NOT NULL CHECK (rank >= 1),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (applicant_id, area_of_law),
					FOREIGN KEY (applicant_id) REFERENCES applicants(id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS statements (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					applicant_id INTEGER NOT NULL,
					area_of_law TEXT NOT NULL,
					content TEXT NOT NULL DEFAULT '',
					grade INTEGER,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (applicant_id, area_of_law),
					FOREIGN KEY (applicant_id) REFERENCES applicants(id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS grades (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					applicant_id INTEGER UNIQUE NOT NULL,
					constitutional_law TEXT,
					contracts TEXT,
					criminal_law TEXT,
					property_law TEXT,
					torts TEXT,
					lrw_case_brief TEXT,
					lrw_multiple_case TEXT,
					lrw_short_memo TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (applicant_id) REFERENCES applicants(id) ON DELETE CASCADE
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Matching rounds and assignments",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS matching_rounds (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					number INTEGER UNIQUE NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					error_message TEXT,
					total_students INTEGER NOT NULL DEFAULT 0,
					matched_students INTEGER NOT NULL DEFAULT 0,
					started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					completed_at DATETIME
				)`,

				`CREATE TABLE IF NOT EXISTS match_assignments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					applicant_id INTEGER NOT NULL,
					organization_id INTEGER NOT NULL,
					area_of_law TEXT NOT NULL,
					round_number INTEGER NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					score REAL NOT NULL DEFAULT 0,
					preference_score REAL NOT NULL DEFAULT 0,
					grade_score REAL NOT NULL DEFAULT 0,
					statement_score REAL NOT NULL DEFAULT 0,
					fit_score REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (applicant_id, organization_id, area_of_law),
					FOREIGN KEY (applicant_id) REFERENCES applicants(id),
					FOREIGN KEY (organization_id) REFERENCES organizations(id)
				)`,
				`CREATE INDEX idx_assignments_round ON match_assignments(round_number)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Import audit log",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS import_logs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					file_name TEXT NOT NULL,
					kind TEXT NOT NULL,
					imported_by TEXT,
					success_count INTEGER NOT NULL DEFAULT 0,
					error_count INTEGER NOT NULL DEFAULT 0,
					errors TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
