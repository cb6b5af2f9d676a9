// Package artifacts reconciles dispatch work against the PDF statements an
// external producer has already written to disk.
//
// The layout is a root directory of per-period folders, each holding the
// statements generated for that quarter:
//
//	<root>/q3-2025/Statement_Q3_2025_A12345.pdf
//
// The filename derivation is a cross-system contract with the producer and
// must not drift.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quarterlabs/statement-dispatch/pkg/account"
	"github.com/quarterlabs/statement-dispatch/pkg/period"
)

// periodFolder matches artifact directories like "q3-2025".
var periodFolder = regexp.MustCompile(`^q[1-4]-\d{4}$`)

// Locator maps (account, period) pairs to expected artifact paths under a
// fixed root.
type Locator struct {
	root string
}

func NewLocator(root string) *Locator {
	return &Locator{root: root}
}

// Root returns the artifact root directory.
func (l *Locator) Root() string {
	return l.root
}

// ExpectedPath derives the contractual artifact path for an account in a
// period. Pure: no filesystem access.
func (l *Locator) ExpectedPath(acct string, p period.Period) string {
	name := fmt.Sprintf("Statement_Q%d_%d_%s.pdf", p.Quarter, p.Year, account.Sanitize(acct))
	return filepath.Join(l.root, p.Folder(), name)
}

// Exists reports whether an artifact for the account is already on disk.
// The expected path for the given period is checked first; when
// searchAllPeriods is set, every period folder under the root is scanned
// for a file ending in "_<sanitizedAccount>.pdf". Which of several
// historical matches is returned is not contractual.
func (l *Locator) Exists(acct string, p period.Period, searchAllPeriods bool) (bool, string) {
	expected := l.ExpectedPath(acct, p)
	if _, err := os.Stat(expected); err == nil {
		return true, expected
	}

	if !searchAllPeriods {
		return false, ""
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return false, ""
	}

	suffix := "_" + account.Sanitize(acct) + ".pdf"
	for _, e := range entries {
		if !e.IsDir() || !periodFolder.MatchString(e.Name()) {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(l.root, e.Name(), "*"+suffix))
		if err != nil || len(matches) == 0 {
			continue
		}
		return true, matches[0]
	}
	return false, ""
}

// ScanExisting lists the period's folder once and returns the set of
// sanitized accounts that already have a statement. Replaces a per-record
// stat with a set lookup when dispatching a large batch. A missing folder
// is a legitimately empty first run, not an error.
func (l *Locator) ScanExisting(p period.Period) map[string]struct{} {
	existing := make(map[string]struct{})

	entries, err := os.ReadDir(filepath.Join(l.root, p.Folder()))
	if err != nil {
		return existing
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".pdf") {
			continue
		}
		base := strings.TrimSuffix(name, ".pdf")
		idx := strings.LastIndex(base, "_")
		if idx < 0 || idx == len(base)-1 {
			continue
		}
		existing[base[idx+1:]] = struct{}{}
	}
	return existing
}
