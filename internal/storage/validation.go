// Package storage provides the SQLite persistence layer for the placement engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sail-placements/sail/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrInvalidApplicant    = errors.New("invalid applicant")
	ErrInvalidOrganization = errors.New("invalid organization")
	ErrInvalidAssignment   = errors.New("invalid assignment")
	ErrInvalidRankings     = errors.New("invalid area rankings")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrCapacityExceeded    = errors.New("filled positions would exceed available positions")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateApplicant validates an applicant before a write.
func validateApplicant(applicant *model.Applicant) error {
	if applicant == nil {
		return fmt.Errorf("%w: applicant", ErrNilParameter)
	}
	if strings.TrimSpace(applicant.ExternalID) == "" {
		return fmt.Errorf("%w: missing external ID", ErrInvalidApplicant)
	}
	return nil
}

// validateOrganization validates an organization before a write.
func validateOrganization(org *model.Organization) error {
	if org == nil {
		return fmt.Errorf("%w: organization", ErrNilParameter)
	}
	if strings.TrimSpace(org.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidOrganization)
	}
	if org.AvailablePositions < 0 {
		return fmt.Errorf("%w: available positions must be >= 0", ErrInvalidOrganization)
	}
	if org.FilledPositions < 0 {
		return fmt.Errorf("%w: filled positions must be >= 0", ErrInvalidOrganization)
	}
	if org.FilledPositions > org.AvailablePositions {
		return fmt.Errorf("%w: organization %q", ErrCapacityExceeded, org.Name)
	}
	return nil
}

// validateAssignment validates an assignment before a write.
func validateAssignment(assignment *model.MatchAssignment) error {
	if assignment == nil {
		return fmt.Errorf("%w: assignment", ErrNilParameter)
	}
	if assignment.ApplicantID == 0 {
		return fmt.Errorf("%w: missing applicant ID", ErrInvalidAssignment)
	}
	if assignment.OrganizationID == 0 {
		return fmt.Errorf("%w: missing organization ID", ErrInvalidAssignment)
	}
	if strings.TrimSpace(assignment.AreaOfLaw) == "" {
		return fmt.Errorf("%w: missing area of law", ErrInvalidAssignment)
	}
	if assignment.RoundNumber < 1 {
		return fmt.Errorf("%w: round number must be >= 1", ErrInvalidAssignment)
	}
	if !model.ValidAssignmentStatus(assignment.Status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, assignment.Status)
	}
	return nil
}

// validateRankings ensures ranks form a contiguous 1..k permutation with no
// duplicate areas.
func validateRankings(rankings []model.AreaRanking) error {
	seenRanks := make(map[int]bool, len(rankings))
	seenAreas := make(map[string]bool, len(rankings))

	for _, r := range rankings {
		if strings.TrimSpace(r.AreaOfLaw) == "" {
			return fmt.Errorf("%w: empty area of law", ErrInvalidRankings)
		}
		if r.Rank < 1 || r.Rank > len(rankings) {
			return fmt.Errorf("%w: rank %d out of range [1, %d]", ErrInvalidRankings, r.Rank, len(rankings))
		}
		if seenRanks[r.Rank] {
			return fmt.Errorf("%w: duplicate rank %d", ErrInvalidRankings, r.Rank)
		}
		area := strings.ToLower(strings.TrimSpace(r.AreaOfLaw))
		if seenAreas[area] {
			return fmt.Errorf("%w: duplicate area %q", ErrInvalidRankings, r.AreaOfLaw)
		}
		seenRanks[r.Rank] = true
		seenAreas[area] = true
	}
	return nil
}
