package model

import (
	"strings"
	"time"
)

// Organization is a host organization recruiting externs for one or more
// areas of law. FilledPositions never exceeds AvailablePositions.
type Organization struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Name               string
	Description        string
	Location           string
	Email              string
	Phone              string
	Website            string
	Requirements       string
	WorkMode           WorkMode
	AreasOfLaw         []string
	ID                 int64
	AvailablePositions int
	FilledPositions    int
	IsActive           bool
}

// RemainingPositions returns the number of unfilled positions.
func (o *Organization) RemainingPositions() int {
	remaining := o.AvailablePositions - o.FilledPositions
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecruitsFor reports whether the organization recruits for the given area,
// case-insensitively.
func (o *Organization) RecruitsFor(area string) bool {
	want := strings.ToLower(strings.TrimSpace(area))
	for _, a := range o.AreasOfLaw {
		if strings.ToLower(strings.TrimSpace(a)) == want {
			return true
		}
	}
	return false
}
