// Package model defines the core domain records used throughout the application.
package model

import (
	"strings"
	"time"
)

// WorkMode is a normalized work-arrangement preference.
type WorkMode string

// Work mode vocabulary.
const (
	WorkModeInPerson WorkMode = "in-person"
	WorkModeHybrid   WorkMode = "hybrid"
	WorkModeRemote   WorkMode = "remote"
)

// ParseWorkMode normalizes a free-text work preference onto the closed
// vocabulary. Returns false when the text does not describe a known mode.
func ParseWorkMode(s string) (WorkMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in-person", "in person", "inperson", "on-site", "onsite", "on site":
		return WorkModeInPerson, true
	case "hybrid":
		return WorkModeHybrid, true
	case "remote", "virtual":
		return WorkModeRemote, true
	}
	return "", false
}

// Applicant is a law student as reconciled from spreadsheet imports and
// grade documents, keyed by the externally supplied student identifier.
type Applicant struct {
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ExternalID          string
	FirstName           string
	LastName            string
	Email               string
	BackupEmail         string
	Program             string
	LocationPreferences []string
	WorkModePreferences []WorkMode
	SelfProposed        *SelfProposedExternship
	ID                  int64
	IsMatched           bool
	NeedsApproval       bool
	IsActive            bool
}

// FullName returns the applicant's display name.
func (a *Applicant) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// PrefersLocation reports whether the applicant listed the given location.
// Comparison is case-insensitive on trimmed text.
func (a *Applicant) PrefersLocation(location string) bool {
	want := strings.ToLower(strings.TrimSpace(location))
	if want == "" {
		return false
	}
	for _, loc := range a.LocationPreferences {
		if strings.ToLower(strings.TrimSpace(loc)) == want {
			return true
		}
	}
	return false
}

// PrefersWorkMode reports whether the applicant listed the given work mode.
func (a *Applicant) PrefersWorkMode(mode WorkMode) bool {
	for _, m := range a.WorkModePreferences {
		if m == mode {
			return true
		}
	}
	return false
}

// SelfProposedExternship holds the organization and supervisor details an
// applicant supplies when proposing their own placement. It is owned by the
// applicant record; there is no separate externship row to keep in sync.
type SelfProposedExternship struct {
	Organization    string
	Supervisor      string
	SupervisorEmail string
	Address         string
	Website         string
}

// AreaRanking is one entry in an applicant's ordered list of area-of-law
// preferences. Rank values form a contiguous 1..k permutation per applicant.
type AreaRanking struct {
	CreatedAt   time.Time
	AreaOfLaw   string
	ApplicantID int64
	Rank        int
	ID          int64
}

// Statement is an applicant's statement of interest for one area of law,
// with an optional numeric grade in [0, statement max].
type Statement struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AreaOfLaw   string
	Content     string
	Grade       *int
	ApplicantID int64
	ID          int64
}

// DefaultStatementMax is the denominator for statement grades. The source
// material disagrees between 20 and 25; 25 is the value the statement model
// documents, so it is the fixed default here (overridable in config).
const DefaultStatementMax = 25
