package model

import "time"

// AssignmentStatus tracks an assignment through the approval workflow.
type AssignmentStatus string

// Assignment status constants.
const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentApproved  AssignmentStatus = "approved"
	AssignmentRejected  AssignmentStatus = "rejected"
	AssignmentCompleted AssignmentStatus = "completed"
)

// ValidAssignmentStatus reports whether s is a known assignment status.
func ValidAssignmentStatus(s AssignmentStatus) bool {
	switch s {
	case AssignmentPending, AssignmentApproved, AssignmentRejected, AssignmentCompleted:
		return true
	}
	return false
}

// ScoreBreakdown carries the component sub-scores behind a match, so every
// placement is explainable after the fact.
type ScoreBreakdown struct {
	Preference float64
	Grade      float64
	Statement  float64
	Fit        float64
}

// MatchAssignment is one applicant→organization placement produced by a
// matching round. Unique per (applicant, organization, area, round); status
// transitions happen in the approval workflow, never by re-running a round.
type MatchAssignment struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AreaOfLaw      string
	Status         AssignmentStatus
	Breakdown      ScoreBreakdown
	Score          float64
	ApplicantID    int64
	OrganizationID int64
	RoundNumber    int
	ID             int64
}

// RoundStatus tracks the lifecycle of a matching round.
type RoundStatus string

// Round status constants.
const (
	RoundPending   RoundStatus = "pending"
	RoundRunning   RoundStatus = "running"
	RoundCompleted RoundStatus = "completed"
	RoundFailed    RoundStatus = "failed"
)

// MatchingRound records one execution of the matching algorithm. Completed
// and failed rounds are immutable.
type MatchingRound struct {
	StartedAt       time.Time
	CompletedAt     *time.Time
	Status          RoundStatus
	ErrorMessage    string
	Number          int
	TotalStudents   int
	MatchedStudents int
	ID              int64
}
