package domain

import "time"

// Clock returns the current instant. Batches and products read it on every
// call, so expiry follows real time.
type Clock func() time.Time

// Option configures a Batch or a Product.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Date truncates t to its calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c Clock) today() time.Time {
	return Date(c())
}
