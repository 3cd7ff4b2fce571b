package gradedoc

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sail-placements/sail/internal/common"
	"github.com/sail-placements/sail/internal/model"
	"github.com/sail-placements/sail/internal/service"
)

// gradeToken matches anything that could plausibly be a grade: a word with an
// optional +/- suffix, or a fraction. Validation happens afterwards so that a
// recognizable-but-invalid token ("Pass", "5/4") is reported, not silently
// skipped.
const gradeToken = `([A-Za-z]+[+\-]?|\d+\s*/\s*\d+)`

// fieldPatterns maps each grade field to the label variants seen in these
// documents. Order follows model.GradeFields.
// Label-to-token separators are same-line only; a label with its grade on the
// next line is treated as unrecognized rather than guessed at.
var fieldPatterns = map[string]*regexp.Regexp{
	model.GradeFieldConstitutionalLaw: regexp.MustCompile(`(?i)Constitutional[ \t]*Law[ \t\-:]*` + gradeToken),
	model.GradeFieldContracts:         regexp.MustCompile(`(?i)Contracts?[ \t\-:]*` + gradeToken),
	model.GradeFieldCriminalLaw:       regexp.MustCompile(`(?i)Criminal[ \t]*Law[ \t\-:]*` + gradeToken),
	model.GradeFieldPropertyLaw:       regexp.MustCompile(`(?i)Property(?:[ \t]*Law)?[ \t\-:]*` + gradeToken),
	model.GradeFieldTorts:             regexp.MustCompile(`(?i)Torts?[ \t\-:]*` + gradeToken),
	model.GradeFieldLRWCaseBrief:      regexp.MustCompile(`(?i)(?:LRW[ \t\-:]*)?Case[ \t]*Brief[ \t\-:]*` + gradeToken),
	model.GradeFieldLRWMultipleCase:   regexp.MustCompile(`(?i)(?:LRW[ \t\-:]*)?Multiple[ \t]*Case(?:[ \t]*Analysis)?[ \t\-:]*` + gradeToken),
	model.GradeFieldLRWShortMemo:      regexp.MustCompile(`(?i)(?:LRW[ \t\-:]*)?Short[ \t]*Memo[ \t\-:]*` + gradeToken),
}

// identifierPatterns locate the student identifier, tried in order. The more
// specific label wins over the bare one.
var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Student[ \t]*(?:ID|Number)[ \t#:]*([A-Za-z0-9\-]+)`),
	regexp.MustCompile(`(?im)^[ \t]*ID[ \t#:]*([A-Za-z0-9\-]+)`),
}

// namePattern is the fallback when no identifier is present in the document.
// Separators are same-line only so the capture cannot run into the next line.
var namePattern = regexp.MustCompile(`(?i)(?:Student[ \t]*)?Name[ \t:]+([A-Za-z'\-]+(?:[ \t]+[A-Za-z'\-]+)+)`)

// Extractor parses grade documents and merges the recognized fields into the
// applicant's grade record.
type Extractor struct {
	storage    service.Storage
	importedBy string
}

// NewExtractor creates a grade document extractor. importedBy is recorded in
// the audit log.
func NewExtractor(storage service.Storage, importedBy string) *Extractor {
	return &Extractor{storage: storage, importedBy: importedBy}
}

// ProcessFile extracts text from the PDF at path and processes it. The
// returned summary is always non-nil and an audit entry is always written,
// even when extraction fails outright.
func (e *Extractor) ProcessFile(ctx context.Context, path string) (*service.ImportSummary, error) {
	fileName := filepath.Base(path)

	text, err := ExtractText(path)
	if err != nil {
		summary := &service.ImportSummary{FileName: fileName}
		docError(summary, err.Error())
		if logErr := e.writeLog(ctx, fileName, summary); logErr != nil {
			return summary, logErr
		}
		return summary, err
	}

	return e.ProcessText(ctx, fileName, text)
}

// ProcessText resolves the document to one applicant, extracts every
// recognizable grade field, and merges them into the stored grade record.
// A document that yields no applicant or no valid field is a failure; a
// document missing some fields is not. Exactly one audit entry is written.
func (e *Extractor) ProcessText(ctx context.Context, fileName, text string) (*service.ImportSummary, error) {
	summary := &service.ImportSummary{FileName: fileName}

	applicant, err := e.resolveApplicant(ctx, text)
	if err != nil {
		docError(summary, err.Error())
		if logErr := e.writeLog(ctx, fileName, summary); logErr != nil {
			return summary, logErr
		}
		return summary, err
	}

	values := e.extractFields(text, summary)
	if len(values) == 0 {
		docError(summary, common.ErrNoFieldsExtracted.Error())
		if logErr := e.writeLog(ctx, fileName, summary); logErr != nil {
			return summary, logErr
		}
		return summary, common.ErrNoFieldsExtracted
	}

	if err := e.mergeGrade(ctx, applicant.ID, values); err != nil {
		docError(summary, err.Error())
		if logErr := e.writeLog(ctx, fileName, summary); logErr != nil {
			return summary, logErr
		}
		return summary, err
	}

	summary.SuccessCount = len(values)
	summary.Touch(applicant.ExternalID)
	if err := e.writeLog(ctx, fileName, summary); err != nil {
		return summary, err
	}

	slog.Info("grade document processed",
		"file", fileName,
		"applicant", applicant.ExternalID,
		"fields", len(values),
		"errors", len(summary.Errors))
	return summary, nil
}

// resolveApplicant finds the applicant the document belongs to: first by
// identifier label, then by full name. A name shared by more than one
// applicant cannot be resolved and fails the document.
func (e *Extractor) resolveApplicant(ctx context.Context, text string) (*model.Applicant, error) {
	for _, pattern := range identifierPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		externalID := strings.TrimSpace(match[1])

		applicant, err := e.storage.GetApplicantByExternalID(ctx, externalID)
		if err != nil {
			return nil, err
		}
		if applicant == nil {
			return nil, fmt.Errorf("%w: no applicant with ID %s", common.ErrApplicantNotFound, externalID)
		}
		return applicant, nil
	}

	match := namePattern.FindStringSubmatch(text)
	if match == nil {
		return nil, common.ErrNoIdentifier
	}

	first, last, ok := splitFullName(match[1])
	if !ok {
		return nil, common.ErrNoIdentifier
	}

	candidates, err := e.storage.FindApplicantsByName(ctx, first, last)
	if err != nil {
		return nil, err
	}
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: no applicant named %s %s", common.ErrApplicantNotFound, first, last)
	case 1:
		return &candidates[0], nil
	default:
		return nil, fmt.Errorf("%w: %d applicants named %s %s", common.ErrApplicantAmbiguous, len(candidates), first, last)
	}
}

// extractFields runs every field recognizer over the text. Tokens that fail
// grade validation are recorded on the summary and the field left unset.
func (e *Extractor) extractFields(text string, summary *service.ImportSummary) map[string]*model.GradeValue {
	values := make(map[string]*model.GradeValue)

	for _, field := range model.GradeFields {
		match := fieldPatterns[field].FindStringSubmatch(text)
		if match == nil {
			continue
		}
		token := strings.TrimSpace(match[1])

		value, err := model.ParseGradeValue(token)
		if err != nil {
			summary.Errors = append(summary.Errors, model.ImportError{
				RowIndex: -1,
				Message:  err.Error(),
				Data:     map[string]string{"field": field, "token": token},
			})
			continue
		}
		values[field] = value
	}

	return values
}

// mergeGrade writes the extracted values over the applicant's grade record.
// Fields absent from this document keep their stored values.
func (e *Extractor) mergeGrade(ctx context.Context, applicantID int64, values map[string]*model.GradeValue) (err error) {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	grade := model.NewGrade(applicantID)
	for field, value := range values {
		if err = grade.Set(field, value); err != nil {
			return err
		}
	}

	if err = tx.UpsertGrade(ctx, grade); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit grade: %w", err)
	}
	return nil
}

func (e *Extractor) writeLog(ctx context.Context, fileName string, summary *service.ImportSummary) error {
	log := &model.ImportLog{
		FileName:     fileName,
		Kind:         model.ImportKindDocument,
		ImportedBy:   e.importedBy,
		SuccessCount: summary.SuccessCount,
		ErrorCount:   len(summary.Errors),
		Errors:       summary.Errors,
	}
	if err := e.storage.SaveImportLog(ctx, log); err != nil {
		return fmt.Errorf("failed to write import log: %w", err)
	}
	return nil
}

// docError appends a document-level error to the summary.
func docError(summary *service.ImportSummary, message string) {
	summary.Errors = append(summary.Errors, model.ImportError{
		RowIndex: -1,
		Message:  message,
	})
}

// splitFullName separates a captured full name into first name and the
// remainder as last name.
func splitFullName(full string) (first, last string, ok bool) {
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], strings.Join(parts[1:], " "), true
}

