package chrono

import "time"

type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl creates a clock in the given IANA location, an empty name
// means UTC.
func NewStandardImpl(location string) (StandardImpl, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: loc}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant, advancing by `Step` after every
// call to Now when Step is set.
type FixedImpl struct {
	current *time.Time
	step    time.Duration
}

func NewFixedImpl(start time.Time, step time.Duration) FixedImpl {
	return FixedImpl{current: &start, step: step}
}

func (f FixedImpl) Now() time.Time {
	now := *f.current
	*f.current = now.Add(f.step)
	return now
}

func (f FixedImpl) Location() *time.Location {
	return f.current.Location()
}
