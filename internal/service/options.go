package service

import (
	"time"

	"github.com/AminArria/sponsorly/internal/events"
	"github.com/AminArria/sponsorly/internal/schedule"
	"github.com/AminArria/sponsorly/internal/slotgate"
)

// options holds collaborators shared by the services
type options struct {
	clock     func() time.Time
	horizon   schedule.Horizon
	gate      slotgate.Gate
	publisher events.Publisher
}

// Option configures a service
type Option func(*options)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithHorizon bounds issue generation at newsletter creation
func WithHorizon(h schedule.Horizon) Option {
	return func(o *options) {
		o.horizon = h
	}
}

// WithSlotGate sets the confirmed-slot marker
func WithSlotGate(g slotgate.Gate) Option {
	return func(o *options) {
		if g != nil {
			o.gate = g
		}
	}
}

// WithPublisher sets the event publisher
func WithPublisher(p events.Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		clock:     time.Now,
		horizon:   schedule.DefaultHorizon(),
		gate:      slotgate.Noop{},
		publisher: events.Noop{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// now returns the current time at the precision timestamps are stored with
func (o *options) now() time.Time {
	return o.clock().UTC().Truncate(time.Millisecond)
}
