package dispatch

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// maxFailureLines bounds the user-visible failure list; the remainder is
// reported as a count.
const maxFailureLines = 10

// Failure records one failed dispatch.
type Failure struct {
	Account string
	Email   string
	Reason  string
}

// Report accumulates outcomes over one run. It lives for the run only and
// is never persisted: resumption is driven by resume parameters and
// artifact reconciliation, not by checkpoints.
type Report struct {
	RunID     string
	Processed int
	Succeeded int
	Skipped   int
	Failed    int
	Failures  []Failure
}

func NewReport() *Report {
	return &Report{RunID: uuid.NewString()}
}

func (r *Report) success() {
	r.Processed++
	r.Succeeded++
}

func (r *Report) skip() {
	r.Processed++
	r.Skipped++
}

func (r *Report) failure(acct, email, reason string) {
	r.Processed++
	r.Failed++
	r.Failures = append(r.Failures, Failure{Account: acct, Email: email, Reason: reason})
}

// WriteSummary prints aggregate counts and the first failures.
func (r *Report) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "\nRun ID: %s\n", r.RunID)
	fmt.Fprintf(w, "Total processed: %d\n", r.Processed)
	fmt.Fprintf(w, "Successful: %d\n", r.Succeeded)
	fmt.Fprintf(w, "Skipped: %d\n", r.Skipped)
	fmt.Fprintf(w, "Failed: %d\n", r.Failed)

	if len(r.Failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nErrors encountered:\n")
	for i, f := range r.Failures {
		if i == maxFailureLines {
			fmt.Fprintf(w, "  ... and %d more errors\n", len(r.Failures)-maxFailureLines)
			break
		}
		if f.Email != "" {
			fmt.Fprintf(w, "  - Account %s (%s): %s\n", f.Account, f.Email, f.Reason)
		} else {
			fmt.Fprintf(w, "  - Account %s: %s\n", f.Account, f.Reason)
		}
	}
}
