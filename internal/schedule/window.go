package schedule

import (
	"errors"
	"time"
)

var (
	// ErrInvalidWindow is returned when a newsletter's lead times leave no time to sponsor an issue
	ErrInvalidWindow = errors.New("sponsor window must open before it closes")
	// ErrNegativeLeadTime is returned for negative sponsor_in_days or sponsor_before_days
	ErrNegativeLeadTime = errors.New("lead time must not be negative")
)

// Window is the half-open span [OpensAt, ClosesAt) in which an issue may be sponsored
type Window struct {
	OpensAt  time.Time `json:"opens_at"`
	ClosesAt time.Time `json:"closes_at"`
}

// WindowFor computes the sponsor window of an issue due at dueAt.
func WindowFor(dueAt time.Time, sponsorInDays, sponsorBeforeDays int) Window {
	due := Truncate(dueAt)
	return Window{
		OpensAt:  due.AddDate(0, 0, -sponsorInDays),
		ClosesAt: due.AddDate(0, 0, -sponsorBeforeDays),
	}
}

// ValidateWindow checks that the lead times produce a non-empty window for every due date.
func ValidateWindow(sponsorInDays, sponsorBeforeDays int) error {
	if sponsorInDays < 0 || sponsorBeforeDays < 0 {
		return ErrNegativeLeadTime
	}
	// opens_at < closes_at for any due date
	if sponsorInDays <= sponsorBeforeDays {
		return ErrInvalidWindow
	}
	return nil
}

// IsOpen reports opens_at <= now < closes_at
func (w Window) IsOpen(now time.Time) bool {
	return !now.Before(w.OpensAt) && now.Before(w.ClosesAt)
}

// HasClosed reports now >= closes_at
func (w Window) HasClosed(now time.Time) bool {
	return !now.Before(w.ClosesAt)
}

// Deadline is the last instant (exclusive) a sponsorship can be confirmed
func (w Window) Deadline() time.Time {
	return w.ClosesAt
}

// IsUpcoming reports whether an issue due at dueAt is still in the future.
// Public listings only show upcoming issues.
func IsUpcoming(dueAt, now time.Time) bool {
	return dueAt.After(now)
}
