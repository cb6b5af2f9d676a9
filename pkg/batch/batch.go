// Package batch defines the unit of dispatch work and the resumable,
// filterable window over an ordered batch of records.
package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/quarterlabs/statement-dispatch/pkg/account"
)

// ErrResumeRange reports an index-based resume point outside the batch.
var ErrResumeRange = errors.New("batch: resume index out of range")

// Record is one unit of work as supplied by the store. The pipeline treats
// it as read-only; flag changes go back to the store as point updates.
type Record struct {
	ID            string
	BatchID       string
	AccountNumber string // envelope or plaintext, never pre-normalized
	PlayerData    string // optional encrypted JSON payload
	Status        string
	IsEmail       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Generation describes a statement generation batch.
type Generation struct {
	ID              string
	StatementPeriod string
	StatementDate   string
	GenerationDate  time.Time
	TotalPlayers    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Cursor selects the records of an ordered batch that a run should
// process. The store supplies records in ascending account order; the
// cursor only drops leading or non-matching records and never reorders.
//
// StartFromAccount and StartFromIndex are alternative resume modes and
// are not combined: account floors resume the full member list, index
// resume applies to generation batches.
type Cursor struct {
	// StartFromAccount drops leading records whose normalized account is
	// strictly below this floor (numeric-aware comparison).
	StartFromAccount string

	// StartFromIndex drops the first index-1 records; 1-based. Zero means
	// no index resume.
	StartFromIndex int

	// StatusFilter, when non-empty, retains only records with this status.
	StatusFilter string
}

// Window is the cursor's output: the records to process plus the counts
// needed for "[Row N / total]" progress accounting.
type Window struct {
	Records []Record
	// Total is the record count before any filtering.
	Total int
	// FirstRow is the 1-based row number of Records[0] within the
	// filtered sequence, so resumed runs report original row numbers.
	FirstRow int
}

// Apply filters records through the cursor. Order of operations mirrors
// the dispatch workflows: status filter first, then the resume point.
func (c Cursor) Apply(normalize func(string) string, records []Record) (Window, error) {
	w := Window{Total: len(records), FirstRow: 1}

	filtered := records
	if c.StatusFilter != "" {
		filtered = make([]Record, 0, len(records))
		for _, r := range records {
			if r.Status == c.StatusFilter {
				filtered = append(filtered, r)
			}
		}
	}

	if c.StartFromIndex != 0 {
		if c.StartFromIndex < 1 || c.StartFromIndex > len(filtered) {
			return Window{}, fmt.Errorf("%w: index %d, %d records", ErrResumeRange, c.StartFromIndex, len(filtered))
		}
		w.Records = filtered[c.StartFromIndex-1:]
		w.FirstRow = c.StartFromIndex
		return w, nil
	}

	if c.StartFromAccount != "" {
		for i, r := range filtered {
			if account.Compare(normalize(r.AccountNumber), c.StartFromAccount) >= 0 {
				w.Records = filtered[i:]
				w.FirstRow = i + 1
				return w, nil
			}
		}
		w.Records = nil
		w.FirstRow = len(filtered) + 1
		return w, nil
	}

	w.Records = filtered
	return w, nil
}
