package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// letterPoints maps the closed letter-grade vocabulary onto a 4.3-point
// scale. Any token outside this map (other than a fraction) is invalid.
var letterPoints = map[string]float64{
	"A+": 4.3, "A": 4.0, "A-": 3.7,
	"B+": 3.3, "B": 3.0, "B-": 2.7,
	"C+": 2.3, "C": 2.0, "C-": 1.7,
	"D+": 1.3, "D": 1.0, "D-": 0.7,
}

// maxGradePoints is the top of the letter scale, used for normalization.
const maxGradePoints = 4.3

// GradeValue is a single validated grade: either a letter from the closed
// A+..D- vocabulary or a numerator/denominator fraction. Never free text.
type GradeValue struct {
	Letter      string
	Numerator   int
	Denominator int
}

// ParseGradeValue validates a captured token against the grade vocabulary.
// Both letter grades and fractions are accepted for every field; the source
// material is inconsistent on this, so the permissive reading is the
// documented one.
func ParseGradeValue(token string) (*GradeValue, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("empty grade token")
	}

	upper := strings.ToUpper(token)
	if _, ok := letterPoints[upper]; ok {
		return &GradeValue{Letter: upper}, nil
	}

	num, denom, ok := strings.Cut(token, "/")
	if ok {
		n, nErr := strconv.Atoi(strings.TrimSpace(num))
		d, dErr := strconv.Atoi(strings.TrimSpace(denom))
		if nErr == nil && dErr == nil && d > 0 && n >= 0 && n <= d {
			return &GradeValue{Numerator: n, Denominator: d}, nil
		}
	}

	return nil, fmt.Errorf("invalid grade %q: expected letter grade or numerator/denominator", token)
}

// IsFraction reports whether the value is a numeric fraction.
func (g *GradeValue) IsFraction() bool {
	return g.Letter == "" && g.Denominator > 0
}

// Points maps the grade onto the 4.3-point scale. Fractions are scaled so a
// perfect score equals the top letter grade.
func (g *GradeValue) Points() float64 {
	if g.IsFraction() {
		return float64(g.Numerator) / float64(g.Denominator) * maxGradePoints
	}
	return letterPoints[g.Letter]
}

// Normalized returns the grade in [0, 1].
func (g *GradeValue) Normalized() float64 {
	return g.Points() / maxGradePoints
}

// String renders the grade in its stored form.
func (g *GradeValue) String() string {
	if g.IsFraction() {
		return fmt.Sprintf("%d/%d", g.Numerator, g.Denominator)
	}
	return g.Letter
}

// Grade field names, in document order: the five first-year courses and the
// three legal research and writing sub-assignments.
const (
	GradeFieldConstitutionalLaw = "constitutional_law"
	GradeFieldContracts         = "contracts"
	GradeFieldCriminalLaw       = "criminal_law"
	GradeFieldPropertyLaw       = "property_law"
	GradeFieldTorts             = "torts"
	GradeFieldLRWCaseBrief      = "lrw_case_brief"
	GradeFieldLRWMultipleCase   = "lrw_multiple_case"
	GradeFieldLRWShortMemo      = "lrw_short_memo"
)

// GradeFields lists every grade field in canonical order.
var GradeFields = []string{
	GradeFieldConstitutionalLaw,
	GradeFieldContracts,
	GradeFieldCriminalLaw,
	GradeFieldPropertyLaw,
	GradeFieldTorts,
	GradeFieldLRWCaseBrief,
	GradeFieldLRWMultipleCase,
	GradeFieldLRWShortMemo,
}

// Grade holds the single grade record for an applicant. Each field is nil
// until a document supplies it; later documents never null out a value.
type Grade struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Fields      map[string]*GradeValue
	ApplicantID int64
	ID          int64
}

// NewGrade returns an empty grade record for the applicant.
func NewGrade(applicantID int64) *Grade {
	return &Grade{
		ApplicantID: applicantID,
		Fields:      make(map[string]*GradeValue),
	}
}

// Set stores a value for a known field name.
func (g *Grade) Set(field string, value *GradeValue) error {
	if !validGradeField(field) {
		return fmt.Errorf("unknown grade field %q", field)
	}
	if g.Fields == nil {
		g.Fields = make(map[string]*GradeValue)
	}
	g.Fields[field] = value
	return nil
}

// Get returns the value for a field, or nil when unset.
func (g *Grade) Get(field string) *GradeValue {
	return g.Fields[field]
}

// Average returns the mean normalized grade across set fields in [0, 1],
// and false when no field is set.
func (g *Grade) Average() (float64, bool) {
	var sum float64
	var n int
	for _, field := range GradeFields {
		if v := g.Fields[field]; v != nil {
			sum += v.Normalized()
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func validGradeField(field string) bool {
	for _, f := range GradeFields {
		if f == field {
			return true
		}
	}
	return false
}
