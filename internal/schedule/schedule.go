// Package schedule projects newsletter issue due dates and computes the
// sponsorship window of each issue. Everything here is pure and works in UTC
// at whole-second precision so computed values compare equal to stored ones.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Day is the unit used by interval_days, sponsor_in_days and sponsor_before_days
const Day = 24 * time.Hour

var (
	// ErrInvalidCadence is returned when interval_days is not positive
	ErrInvalidCadence = errors.New("interval must be greater than 0 days")
	// ErrInvalidHorizon is returned when a horizon would not bound generation
	ErrInvalidHorizon = errors.New("horizon must have a positive span and issue count")
)

// Horizon bounds Generate. Issue k is emitted while k < MaxIssues and its due
// date is before first+Span. The first issue is always emitted.
type Horizon struct {
	Span      time.Duration
	MaxIssues int
}

// DefaultHorizon covers one year, enough room for a daily newsletter.
func DefaultHorizon() Horizon {
	return Horizon{Span: 365 * Day, MaxIssues: 366}
}

// Validate checks that the horizon terminates
func (h Horizon) Validate() error {
	if h.Span <= 0 || h.MaxIssues <= 0 {
		return fmt.Errorf("%w: span=%s max_issues=%d", ErrInvalidHorizon, h.Span, h.MaxIssues)
	}
	return nil
}

// Truncate normalizes t to UTC whole seconds
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Generate returns the due dates nextIssueAt, nextIssueAt+interval, ... bounded by horizon.
// The result is strictly increasing by exactly intervalDays days.
func Generate(nextIssueAt time.Time, intervalDays int, horizon Horizon) ([]time.Time, error) {
	if intervalDays <= 0 {
		return nil, ErrInvalidCadence
	}
	if err := horizon.Validate(); err != nil {
		return nil, err
	}

	first := Truncate(nextIssueAt)
	cutoff := first.Add(horizon.Span)

	spanDays := int(horizon.Span / Day)
	if intervalDays > spanDays {
		// the second issue would already fall past the cutoff
		return []time.Time{first}, nil
	}

	capacity := spanDays/intervalDays + 1
	if capacity > horizon.MaxIssues {
		capacity = horizon.MaxIssues
	}

	dues := make([]time.Time, 0, capacity)
	for due := first; len(dues) < horizon.MaxIssues; due = Truncate(due.AddDate(0, 0, intervalDays)) {
		if len(dues) > 0 && !due.Before(cutoff) {
			break
		}
		dues = append(dues, due)
	}
	return dues, nil
}
