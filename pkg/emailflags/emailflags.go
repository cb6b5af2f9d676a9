// Package emailflags imports email opt-in flags from a contact CSV and
// applies them to batch records through the store. Stored account numbers
// may be encrypted; CSV rows are matched against both the decrypted and
// the raw stored form.
package emailflags

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/quarterlabs/statement-dispatch/pkg/account"
	"github.com/quarterlabs/statement-dispatch/pkg/batch"
)

// maxMissingLines bounds the not-found list in the summary.
const maxMissingLines = 20

// Store is the slice of the relational surface this workflow needs.
type Store interface {
	Players(ctx context.Context) ([]batch.Record, error)
	SetEmailFlag(ctx context.Context, recordID string) error
}

// CSVAccounts is the parsed result of a contact CSV.
type CSVAccounts struct {
	Rows     int
	Accounts map[string]struct{} // normalized accounts with Is Email true
}

var truthy = map[string]struct{}{
	"TRUE": {}, "1": {}, "YES": {}, "Y": {}, "T": {},
}

var accountHeaders = map[string]struct{}{
	"acct": {}, "account": {}, "account number": {}, "account_number": {},
}

var emailHeaders = map[string]struct{}{
	"is email": {}, "is_email": {}, "email": {}, "email enabled": {},
}

// ReadCSV extracts the normalized accounts whose Is Email column is
// truthy. Header names are matched loosely and the delimiter may be a
// comma or semicolon.
func ReadCSV(path string) (*CSVAccounts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("emailflags: open csv: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) (*CSVAccounts, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("emailflags: read csv: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = sniffDelimiter(string(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("emailflags: csv has no header: %w", err)
	}

	acctCol, emailCol := -1, -1
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if _, ok := accountHeaders[name]; ok && acctCol < 0 {
			acctCol = i
		}
		if _, ok := emailHeaders[name]; ok && emailCol < 0 {
			emailCol = i
		}
	}
	if acctCol < 0 {
		return nil, fmt.Errorf("emailflags: no account column in header %v", header)
	}
	if emailCol < 0 {
		return nil, fmt.Errorf("emailflags: no Is Email column in header %v", header)
	}

	plain := account.NewNormalizer(nil)
	out := &CSVAccounts{Accounts: make(map[string]struct{})}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("emailflags: read csv row: %w", err)
		}
		out.Rows++
		if acctCol >= len(row) || emailCol >= len(row) {
			continue
		}
		acct := plain.Normalize(row[acctCol])
		if acct == "" {
			continue
		}
		flag := strings.ToUpper(strings.TrimSpace(row[emailCol]))
		if _, ok := truthy[flag]; ok {
			out.Accounts[acct] = struct{}{}
		}
	}
	return out, nil
}

// sniffDelimiter picks semicolon when the first line has semicolons and no
// commas, comma otherwise.
func sniffDelimiter(data string) rune {
	line, _, _ := strings.Cut(data, "\n")
	if strings.Contains(line, ";") && !strings.Contains(line, ",") {
		return ';'
	}
	return ','
}

// ApplyReport summarizes one flag import pass.
type ApplyReport struct {
	CSVAccounts int
	Matched     int
	Updated     int
	AlreadySet  int
	NotFound    []string
	DryRun      bool
}

// Apply matches CSV accounts against stored records and flags the ones
// not already opted in. Each stored record is compared by its decrypted
// normalized account and by its raw normalized form, since older CSVs
// sometimes carry the encrypted value. Dry runs report without updating.
func Apply(ctx context.Context, st Store, normalizer *account.Normalizer, accounts map[string]struct{}, dryRun bool) (*ApplyReport, error) {
	players, err := st.Players(ctx)
	if err != nil {
		return nil, err
	}

	plain := account.NewNormalizer(nil)
	report := &ApplyReport{CSVAccounts: len(accounts), DryRun: dryRun}

	notFound := make(map[string]struct{}, len(accounts))
	for acct := range accounts {
		notFound[acct] = struct{}{}
	}

	for _, p := range players {
		decrypted := normalizer.Normalize(p.AccountNumber)
		raw := plain.Normalize(p.AccountNumber)

		matched := ""
		if _, ok := accounts[decrypted]; ok {
			matched = decrypted
		} else if _, ok := accounts[raw]; ok {
			matched = raw
		}
		if matched == "" {
			continue
		}
		delete(notFound, matched)
		report.Matched++

		if p.IsEmail == 1 {
			report.AlreadySet++
			continue
		}
		if !dryRun {
			if err := st.SetEmailFlag(ctx, p.ID); err != nil {
				return nil, err
			}
		}
		report.Updated++
	}

	for acct := range notFound {
		report.NotFound = append(report.NotFound, acct)
	}
	sort.Strings(report.NotFound)
	return report, nil
}

// WriteSummary prints the import outcome with a bounded missing list.
func (r *ApplyReport) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "\nAccounts in CSV with Is Email = TRUE: %d\n", r.CSVAccounts)
	fmt.Fprintf(w, "Matched in database: %d\n", r.Matched)
	fmt.Fprintf(w, "Updated: %d\n", r.Updated)
	fmt.Fprintf(w, "Already set: %d\n", r.AlreadySet)

	if len(r.NotFound) > 0 {
		fmt.Fprintf(w, "\nAccounts from CSV not found in database: %d\n", len(r.NotFound))
		for i, acct := range r.NotFound {
			if i == maxMissingLines {
				fmt.Fprintf(w, "  ... and %d more\n", len(r.NotFound)-maxMissingLines)
				break
			}
			fmt.Fprintf(w, "  - %s\n", acct)
		}
	}
	if r.DryRun {
		fmt.Fprintf(w, "\nDry run: no changes were made.\n")
	}
}
