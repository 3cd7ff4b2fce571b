// Package match implements weighted, capacity-constrained greedy matching of
// applicants to organizations.
package match

import "github.com/sail-placements/sail/internal/model"

// maxAreaRank is the number of ranked area slots an applicant can submit.
const maxAreaRank = 5

// Weights control the relative influence of the four score components.
type Weights struct {
	Preference float64
	Grade      float64
	Statement  float64
	Fit        float64
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{Preference: 0.4, Grade: 0.3, Statement: 0.2, Fit: 0.1}
}

// Normalized scales the weights to sum to 1, so configured weights can be
// given in any proportion. Non-positive weight sets fall back to the default.
func (w Weights) Normalized() Weights {
	sum := w.Preference + w.Grade + w.Statement + w.Fit
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Preference: w.Preference / sum,
		Grade:      w.Grade / sum,
		Statement:  w.Statement / sum,
		Fit:        w.Fit / sum,
	}
}

// preferenceScore maps rank 1..maxAreaRank onto (0, 1], first choice highest.
func preferenceScore(rank int) float64 {
	if rank < 1 || rank > maxAreaRank {
		return 0
	}
	return float64(maxAreaRank+1-rank) / float64(maxAreaRank)
}

// fitScore measures logistical compatibility in {0, 0.5, 1}: half for
// location, half for work mode. A dimension the applicant expressed no
// preference on counts as compatible.
func fitScore(applicant *model.Applicant, org *model.Organization) float64 {
	var score float64
	if len(applicant.LocationPreferences) == 0 || applicant.PrefersLocation(org.Location) {
		score += 0.5
	}
	if org.WorkMode == "" || len(applicant.WorkModePreferences) == 0 || applicant.PrefersWorkMode(org.WorkMode) {
		score += 0.5
	}
	return score
}

// candidate is one scored (applicant, organization, area) triple under
// consideration by a round.
type candidate struct {
	applicant *model.Applicant
	org       *model.Organization
	area      string
	rank      int
	remaining int
	score     float64
	breakdown model.ScoreBreakdown
}
