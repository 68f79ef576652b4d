package date

import "fmt"

// Range represents a range of dates, both boundaries included.
type Range struct{ From, To Date }

// NewRange returns the range [from, to] or an error if to is before from.
func NewRange(from, to Date) (Range, error) {
	if to.Before(from) {
		return Range{}, fmt.Errorf("invalid range: end %s is before start %s", to, from)
	}
	return Range{From: from, To: to}, nil
}

// ParseRange parses both boundaries and returns the range.
func ParseRange(from, to string) (Range, error) {
	f, err := Parse(from)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start date: %w", err)
	}
	t, err := Parse(to)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end date: %w", err)
	}
	return NewRange(f, t)
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Days returns the number of calendar days in the range.
func (r Range) Days() int { return r.To.Sub(r.From) + 1 }

func (r Range) String() string { return fmt.Sprintf("%s_%s", r.From, r.To) }

// IsZero reports whether r is the zero range.
func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }
