package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sail-placements/sail/internal/common"
	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/schemamap"
	"github.com/sail-placements/sail/internal/service"
	"github.com/sail-placements/sail/internal/tabular"
)

// StudentImporter upserts applicant rows from a decoded table.
type StudentImporter struct {
	storage    service.Storage
	importedBy string
}

// NewStudentImporter creates a student importer. importedBy is recorded in
// the audit log.
func NewStudentImporter(storage service.Storage, importedBy string) *StudentImporter {
	return &StudentImporter{storage: storage, importedBy: importedBy}
}

// requiredStudentFields are the canonical columns a student import cannot
// proceed without.
var requiredStudentFields = []string{
	schemamap.FieldStudentID,
	schemamap.FieldFirstName,
	schemamap.FieldLastName,
}

// Import processes every row of the table, isolating failures to the row
// that caused them, and writes one audit entry for the run. The returned
// summary always carries both the success count and the full error list.
func (imp *StudentImporter) Import(ctx context.Context, fileName string, table *tabular.Table) (*service.ImportSummary, error) {
	summary := &service.ImportSummary{FileName: fileName}

	mapping := schemamap.Resolve(table.Headers, schemamap.StudentCatalogue())

	var missing []string
	for _, field := range requiredStudentFields {
		if !mapping.Has(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		configError(summary, fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
		if err := writeImportLog(ctx, imp.storage, fileName, imp.importedBy, model.ImportKindTabular, summary); err != nil {
			return summary, err
		}
		return summary, fmt.Errorf("%w: %s", common.ErrMissingColumns, strings.Join(missing, ", "))
	}

	for _, row := range table.Rows {
		externalID, _ := row.Cell(mapping.Header(schemamap.FieldStudentID))
		if externalID == "" {
			// Blank identifiers mark filler rows, not errors.
			continue
		}

		unlock := sharedKeys.Lock(externalID)
		err := imp.importRow(ctx, row, mapping, externalID, summary)
		unlock()

		if err != nil {
			rowError(summary, row, err.Error())
			continue
		}
		summary.SuccessCount++
		summary.Touch(externalID)
	}

	if err := writeImportLog(ctx, imp.storage, fileName, imp.importedBy, model.ImportKindTabular, summary); err != nil {
		return summary, err
	}

	slog.Info("student import finished",
		"file", fileName,
		"imported", summary.SuccessCount,
		"errors", len(summary.Errors))
	return summary, nil
}

// importRow runs one row inside its own transaction. Field-level problems
// (bad email, duplicate areas) are recorded on the summary without failing
// the row; a returned error aborts and rolls back this row only.
func (imp *StudentImporter) importRow(ctx context.Context, row tabular.Row, mapping schemamap.Mapping, externalID string, summary *service.ImportSummary) (err error) {
	tx, err := imp.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	applicant, err := tx.GetApplicantByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if applicant == nil {
		applicant = &model.Applicant{ExternalID: externalID, IsActive: true}
	}

	imp.applyBasicFields(row, mapping, applicant, summary)
	imp.applyPreferences(row, mapping, applicant, summary)
	imp.applySelfProposed(row, mapping, applicant, summary)

	if err = tx.SaveApplicant(ctx, applicant); err != nil {
		return err
	}

	rankings, ok := imp.parseAreaRankings(row, mapping, applicant.ID, summary)
	if ok && len(rankings) > 0 {
		if err = tx.ReplaceAreaRankings(ctx, applicant.ID, rankings); err != nil {
			return err
		}
	}

	if err = imp.applyStatements(ctx, tx, row, mapping, applicant.ID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit row: %w", err)
	}
	return nil
}

// applyBasicFields copies non-empty scalar cells onto the applicant. Empty
// cells never erase existing values.
func (imp *StudentImporter) applyBasicFields(row tabular.Row, mapping schemamap.Mapping, applicant *model.Applicant, summary *service.ImportSummary) {
	setIfPresent := func(field string, dst *string) {
		if !mapping.Has(field) {
			return
		}
		if value, _ := row.Cell(mapping.Header(field)); value != "" {
			*dst = value
		}
	}

	setIfPresent(schemamap.FieldFirstName, &applicant.FirstName)
	setIfPresent(schemamap.FieldLastName, &applicant.LastName)
	setIfPresent(schemamap.FieldProgram, &applicant.Program)

	for _, emailField := range []struct {
		field string
		dst   *string
	}{
		{schemamap.FieldEmail, &applicant.Email},
		{schemamap.FieldBackupEmail, &applicant.BackupEmail},
	} {
		if !mapping.Has(emailField.field) {
			continue
		}
		value, _ := row.Cell(mapping.Header(emailField.field))
		if value == "" {
			continue
		}
		if !ValidEmail(value) {
			rowError(summary, row, fmt.Sprintf("invalid email format: %s", value))
			continue
		}
		*emailField.dst = value
	}
}

// applyPreferences fills location and work-mode preference lists from
// delimiter-separated cells.
func (imp *StudentImporter) applyPreferences(row tabular.Row, mapping schemamap.Mapping, applicant *model.Applicant, summary *service.ImportSummary) {
	if mapping.Has(schemamap.FieldLocationPref) {
		if value, _ := row.Cell(mapping.Header(schemamap.FieldLocationPref)); value != "" {
			applicant.LocationPreferences = tabular.SplitList(value, ListDelimiter)
		}
	}

	if mapping.Has(schemamap.FieldWorkPref) {
		value, _ := row.Cell(mapping.Header(schemamap.FieldWorkPref))
		if value == "" {
			return
		}
		var modes []model.WorkMode
		for _, raw := range tabular.SplitList(value, ListDelimiter) {
			mode, ok := model.ParseWorkMode(raw)
			if !ok {
				rowError(summary, row, fmt.Sprintf("unknown work mode: %s", raw))
				continue
			}
			modes = append(modes, mode)
		}
		if len(modes) > 0 {
			applicant.WorkModePreferences = modes
		}
	}
}

// applySelfProposed populates the owned self-proposed externship sub-entity
// when any of its columns carry data.
func (imp *StudentImporter) applySelfProposed(row tabular.Row, mapping schemamap.Mapping, applicant *model.Applicant, summary *service.ImportSummary) {
	read := func(field string) string {
		if !mapping.Has(field) {
			return ""
		}
		value, _ := row.Cell(mapping.Header(field))
		return value
	}

	org := read(schemamap.FieldSelfPropOrg)
	sup := read(schemamap.FieldSelfPropSup)
	email := read(schemamap.FieldSelfPropEmail)
	address := read(schemamap.FieldSelfPropAddress)
	website := read(schemamap.FieldSelfPropWebsite)

	if org == "" && sup == "" && email == "" && address == "" && website == "" {
		return
	}

	if applicant.SelfProposed == nil {
		applicant.SelfProposed = &model.SelfProposedExternship{}
	}
	sp := applicant.SelfProposed

	if org != "" {
		sp.Organization = org
	}
	if sup != "" {
		sp.Supervisor = sup
	}
	if address != "" {
		sp.Address = address
	}
	if website != "" {
		sp.Website = website
	}
	if email != "" {
		if !ValidEmail(email) {
			rowError(summary, row, fmt.Sprintf("invalid supervisor email format: %s", email))
		} else {
			sp.SupervisorEmail = email
		}
	}
	applicant.NeedsApproval = true
}

// parseAreaRankings reads the ranked area slots in column order. Rank values
// are assigned contiguously from 1 in slot order; a duplicated area is a
// row-level error and suppresses all ranking writes for the row.
func (imp *StudentImporter) parseAreaRankings(row tabular.Row, mapping schemamap.Mapping, applicantID int64, summary *service.ImportSummary) ([]model.AreaRanking, bool) {
	var rankings []model.AreaRanking
	seen := make(map[string]bool)
	duplicate := ""

	for _, field := range schemamap.AreaFields {
		if !mapping.Has(field) {
			continue
		}
		area, _ := row.Cell(mapping.Header(field))
		if area == "" {
			continue
		}
		key := strings.ToLower(area)
		if seen[key] {
			duplicate = area
			continue
		}
		seen[key] = true
		rankings = append(rankings, model.AreaRanking{
			ApplicantID: applicantID,
			AreaOfLaw:   area,
			Rank:        len(rankings) + 1,
		})
	}

	if duplicate != "" {
		rowError(summary, row, fmt.Sprintf("duplicate area of law ranking: %s", duplicate))
		return nil, false
	}
	return rankings, true
}

// applyStatements upserts one statement per slot, paired with the area
// ranked in the same slot.
func (imp *StudentImporter) applyStatements(ctx context.Context, tx service.Transaction, row tabular.Row, mapping schemamap.Mapping, applicantID int64) error {
	for i, field := range schemamap.StatementFields {
		if !mapping.Has(field) {
			continue
		}
		content, _ := row.Cell(mapping.Header(field))
		if content == "" {
			continue
		}

		areaField := schemamap.AreaFields[i]
		if !mapping.Has(areaField) {
			continue
		}
		area, _ := row.Cell(mapping.Header(areaField))
		if area == "" {
			continue
		}

		statement := &model.Statement{
			ApplicantID: applicantID,
			AreaOfLaw:   area,
			Content:     content,
		}
		if err := tx.UpsertStatement(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}
