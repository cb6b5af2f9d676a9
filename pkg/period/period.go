// Package period models the quarterly reporting window a batch belongs to.
package period

import (
	"fmt"
	"strings"
	"time"
)

// rangeLayout matches statement_period strings like "1 October 2025".
const rangeLayout = "2 January 2006"

// Period is a reporting quarter with its explicit date bounds.
type Period struct {
	Quarter int
	Year    int
	Start   time.Time
	End     time.Time
}

// FromDate buckets a date into its quarter: months 1-3 are Q1, 4-6 Q2,
// 7-9 Q3, 10-12 Q4.
func FromDate(t time.Time) Period {
	return Period{
		Quarter: (int(t.Month())-1)/3 + 1,
		Year:    t.Year(),
		Start:   t,
		End:     t,
	}
}

// FromRange builds a period from explicit bounds; the quarter is derived
// from the start date.
func FromRange(start, end time.Time) Period {
	p := FromDate(start)
	p.End = end
	return p
}

// ParseRange parses a free-text statement period of the form
// "1 October 2025 - 31 December 2025". Parse failure yields ok=false.
func ParseRange(s string) (Period, bool) {
	parts := strings.Split(s, " - ")
	if len(parts) != 2 {
		return Period{}, false
	}

	start, err := time.Parse(rangeLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return Period{}, false
	}
	end, err := time.Parse(rangeLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return Period{}, false
	}

	return FromRange(start, end), true
}

// Folder is the per-period artifact directory name, e.g. "q3-2025".
func (p Period) Folder() string {
	return fmt.Sprintf("q%d-%d", p.Quarter, p.Year)
}

// Label identifies the period for display, e.g. "Q3 2025".
func (p Period) Label() string {
	return fmt.Sprintf("Q%d %d", p.Quarter, p.Year)
}

// StartDate returns the start bound in the API wire format (2006-01-02).
func (p Period) StartDate() string {
	return p.Start.Format("2006-01-02")
}

// EndDate returns the end bound in the API wire format.
func (p Period) EndDate() string {
	return p.End.Format("2006-01-02")
}
