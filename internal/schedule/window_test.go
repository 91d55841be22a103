package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowFor(t *testing.T) {
	due := time.Date(2026, time.December, 20, 7, 0, 0, 0, time.UTC)

	w := WindowFor(due, 14, 2)

	assert.Equal(t, due.Add(-14*Day), w.OpensAt)
	assert.Equal(t, due.Add(-2*Day), w.ClosesAt)
	assert.Equal(t, w.ClosesAt, w.Deadline())
}

func TestValidateWindow(t *testing.T) {
	tests := []struct {
		name   string
		in     int
		before int
		want   error
	}{
		{"valid", 14, 2, nil},
		{"zero before", 1, 0, nil},
		{"equal is empty", 3, 3, ErrInvalidWindow},
		{"inverted", 2, 14, ErrInvalidWindow},
		{"negative in", -1, 0, ErrNegativeLeadTime},
		{"negative before", 5, -1, ErrNegativeLeadTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.in, tt.before)
			if tt.want == nil {
				assert.NoError(t, err)
				assert.True(t, WindowFor(time.Now(), tt.in, tt.before).OpensAt.Before(
					WindowFor(time.Now(), tt.in, tt.before).ClosesAt))
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWindow_IsOpen(t *testing.T) {
	due := time.Date(2026, time.December, 20, 7, 0, 0, 0, time.UTC)
	w := WindowFor(due, 10, 3)

	tests := []struct {
		name string
		now  time.Time
		open bool
	}{
		{"before window", w.OpensAt.Add(-time.Second), false},
		{"at opening", w.OpensAt, true},
		{"inside", w.OpensAt.Add(48 * time.Hour), true},
		{"just before close", w.ClosesAt.Add(-time.Nanosecond), true},
		{"at close", w.ClosesAt, false},
		{"after due", due.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, w.IsOpen(tt.now))
		})
	}

	assert.False(t, w.HasClosed(w.ClosesAt.Add(-time.Second)))
	assert.True(t, w.HasClosed(w.ClosesAt))
}

func TestGeneratedIssuesHaveValidWindows(t *testing.T) {
	start := time.Date(2026, time.November, 1, 6, 0, 0, 0, time.UTC)
	dues, err := Generate(start, 3, Horizon{Span: 60 * Day, MaxIssues: 50})
	assert.NoError(t, err)

	for _, due := range dues {
		w := WindowFor(due, 7, 1)
		assert.True(t, w.OpensAt.Before(w.ClosesAt))
		assert.True(t, w.ClosesAt.Before(due))
	}
}

func TestIsUpcoming(t *testing.T) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsUpcoming(now.Add(time.Second), now))
	assert.False(t, IsUpcoming(now, now))
	assert.False(t, IsUpcoming(now.Add(-time.Second), now))
}
