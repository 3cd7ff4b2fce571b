package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sail-placements/sail/internal/common"
	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/schemamap"
	"github.com/sail-placements/sail/internal/service"
	"github.com/sail-placements/sail/internal/tabular"
)

// OrganizationImporter upserts organization rows from a decoded table.
type OrganizationImporter struct {
	storage    service.Storage
	importedBy string
}

// NewOrganizationImporter creates an organization importer.
func NewOrganizationImporter(storage service.Storage, importedBy string) *OrganizationImporter {
	return &OrganizationImporter{storage: storage, importedBy: importedBy}
}

// Import processes every row, keyed by organization name, with the same
// per-row isolation as the student importer.
func (imp *OrganizationImporter) Import(ctx context.Context, fileName string, table *tabular.Table) (*service.ImportSummary, error) {
	summary := &service.ImportSummary{FileName: fileName}

	mapping := schemamap.Resolve(table.Headers, schemamap.OrganizationCatalogue())
	if !mapping.Has(schemamap.FieldOrgName) {
		configError(summary, "missing required column: name")
		if err := writeImportLog(ctx, imp.storage, fileName, imp.importedBy, model.ImportKindTabular, summary); err != nil {
			return summary, err
		}
		return summary, fmt.Errorf("%w: name", common.ErrMissingColumns)
	}

	for _, row := range table.Rows {
		name, _ := row.Cell(mapping.Header(schemamap.FieldOrgName))
		if name == "" {
			continue
		}

		unlock := sharedKeys.Lock("org:" + strings.ToLower(name))
		err := imp.importRow(ctx, row, mapping, name, summary)
		unlock()

		if err != nil {
			rowError(summary, row, err.Error())
			continue
		}
		summary.SuccessCount++
		summary.Touch(name)
	}

	if err := writeImportLog(ctx, imp.storage, fileName, imp.importedBy, model.ImportKindTabular, summary); err != nil {
		return summary, err
	}

	slog.Info("organization import finished",
		"file", fileName,
		"imported", summary.SuccessCount,
		"errors", len(summary.Errors))
	return summary, nil
}

func (imp *OrganizationImporter) importRow(ctx context.Context, row tabular.Row, mapping schemamap.Mapping, name string, summary *service.ImportSummary) (err error) {
	tx, err := imp.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	org, err := tx.GetOrganizationByName(ctx, name)
	if err != nil {
		return err
	}
	if org == nil {
		org = &model.Organization{Name: name, IsActive: true, AvailablePositions: 1}
	}

	setIfPresent := func(field string, dst *string) {
		if !mapping.Has(field) {
			return
		}
		if value, _ := row.Cell(mapping.Header(field)); value != "" {
			*dst = value
		}
	}

	setIfPresent(schemamap.FieldOrgDescription, &org.Description)
	setIfPresent(schemamap.FieldOrgLocation, &org.Location)
	setIfPresent(schemamap.FieldOrgPhone, &org.Phone)
	setIfPresent(schemamap.FieldOrgWebsite, &org.Website)
	setIfPresent(schemamap.FieldOrgRequirements, &org.Requirements)

	if mapping.Has(schemamap.FieldOrgEmail) {
		if email, _ := row.Cell(mapping.Header(schemamap.FieldOrgEmail)); email != "" {
			if !ValidEmail(email) {
				rowError(summary, row, fmt.Sprintf("invalid email format: %s", email))
			} else {
				org.Email = email
			}
		}
	}

	if mapping.Has(schemamap.FieldOrgAreas) {
		if areas, _ := row.Cell(mapping.Header(schemamap.FieldOrgAreas)); areas != "" {
			org.AreasOfLaw = tabular.SplitList(areas, ListDelimiter)
		}
	}

	if mapping.Has(schemamap.FieldOrgPositions) {
		if raw, _ := row.Cell(mapping.Header(schemamap.FieldOrgPositions)); raw != "" {
			positions, convErr := strconv.Atoi(raw)
			if convErr != nil || positions < 0 {
				rowError(summary, row, fmt.Sprintf("invalid positions value: %s", raw))
			} else {
				org.AvailablePositions = positions
			}
		}
	}

	if mapping.Has(schemamap.FieldOrgWorkMode) {
		if raw, _ := row.Cell(mapping.Header(schemamap.FieldOrgWorkMode)); raw != "" {
			mode, ok := model.ParseWorkMode(raw)
			if !ok {
				rowError(summary, row, fmt.Sprintf("unknown work mode: %s", raw))
			} else {
				org.WorkMode = mode
			}
		}
	}

	if mapping.Has(schemamap.FieldOrgActive) {
		if raw, _ := row.Cell(mapping.Header(schemamap.FieldOrgActive)); raw != "" {
			org.IsActive = parseBoolCell(raw)
		}
	}

	if err = tx.SaveOrganization(ctx, org); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit row: %w", err)
	}
	return nil
}

// parseBoolCell accepts the truthy spellings seen in these exports.
func parseBoolCell(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "1", "active":
		return true
	}
	return false
}
