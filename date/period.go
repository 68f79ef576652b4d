package date

import (
	"fmt"
	"strings"
	"time"
)

// Period is a calendar bucket used to aggregate daily series.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		panic(fmt.Sprintf("unknown period %d", p))
	}
}

// ParsePeriod accepts both the adjective and the noun, in any case.
func ParsePeriod(p string) (Period, error) {
	switch strings.ToLower(p) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	case "yearly", "year":
		return Yearly, nil
	default:
		return Daily, fmt.Errorf("unknown period %q", p)
	}
}

// Start returns the first day of the period containing d. Weeks start on Monday.
func (p Period) Start(d Date) Date {
	switch p {
	case Weekly:
		return d.Add(-(int(d.Weekday()) + 6) % 7)
	case Monthly:
		return New(d.y, d.m, 1)
	case Quarterly:
		return New(d.y, d.m-(d.m-time.January)%3, 1)
	case Yearly:
		return New(d.y, time.January, 1)
	default:
		return d
	}
}

// Range returns the calendar range of the period containing d.
func (p Period) Range(d Date) Range {
	start := p.Start(d)
	var next Date
	switch p {
	case Weekly:
		next = start.Add(7)
	case Monthly:
		next = New(start.y, start.m+1, 1)
	case Quarterly:
		next = New(start.y, start.m+3, 1)
	case Yearly:
		next = New(start.y+1, time.January, 1)
	default:
		next = start.Add(1)
	}
	return Range{From: start, To: next.Add(-1)}
}
