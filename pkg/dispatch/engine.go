package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/quarterlabs/statement-dispatch/pkg/account"
	"github.com/quarterlabs/statement-dispatch/pkg/batch"
	"github.com/quarterlabs/statement-dispatch/pkg/envelope"
	"github.com/quarterlabs/statement-dispatch/pkg/period"
)

// Engine walks a batch window strictly sequentially: one record completes
// before the next begins. The statement API is a heavyweight single-purpose
// job with no documented concurrency budget, and one in-flight call keeps
// failure attribution unambiguous. No retries: re-running with the same
// resume point is the retry mechanism, and auto-retry risks duplicate
// side effects against an endpoint whose idempotency is not guaranteed.
type Engine struct {
	caller     Caller
	normalizer *account.Normalizer
	key        []byte
	progress   io.Writer
	logger     *slog.Logger
}

func NewEngine(caller Caller, normalizer *account.Normalizer, key []byte, progress io.Writer) *Engine {
	return &Engine{
		caller:     caller,
		normalizer: normalizer,
		key:        key,
		progress:   progress,
		logger:     slog.Default().With("component", "dispatch"),
	}
}

// ExportOptions controls a PDF export run.
type ExportOptions struct {
	// SkipExisting skips accounts whose artifact is already on disk,
	// per the Existing snapshot.
	SkipExisting bool
	// Existing is the pre-scanned set of sanitized accounts with
	// artifacts. Read once before the run and treated as immutable;
	// concurrent artifact production during the run is out of scope.
	Existing map[string]struct{}
}

// RunExport generates a statement PDF per record in the window.
func (e *Engine) RunExport(ctx context.Context, w batch.Window, p period.Period, opts ExportOptions) *Report {
	report := NewReport()
	logger := e.logger.With("run_id", report.RunID)

	for i, rec := range w.Records {
		row := w.FirstRow + i
		acct := e.normalizer.Normalize(rec.AccountNumber)

		if acct == "" {
			fmt.Fprintf(e.progress, "[Row %d / %d] Skipping record with empty account number (ID: %s)\n", row, w.Total, rec.ID)
			report.skip()
			continue
		}
		if opts.SkipExisting {
			if _, ok := opts.Existing[account.Sanitize(acct)]; ok {
				fmt.Fprintf(e.progress, "[Row %d / %d] Skipping account %s (statement already exists)\n", row, w.Total, acct)
				report.skip()
				continue
			}
		}

		fmt.Fprintf(e.progress, "[Row %d / %d] Generating PDF for account %s... ", row, w.Total, acct)
		if err := e.caller.GeneratePDF(ctx, acct, p.StartDate(), p.EndDate()); err != nil {
			fmt.Fprintf(e.progress, "✗ Failed: %s\n", err)
			logger.Warn("pdf generation failed", "account", acct, "error", err)
			report.failure(acct, "", err.Error())
			continue
		}
		fmt.Fprintf(e.progress, "✓ Success\n")
		report.success()
	}

	return report
}

// RunSend sends a precommitment email per eligible record in the window.
func (e *Engine) RunSend(ctx context.Context, w batch.Window, p period.Period) *Report {
	report := NewReport()
	logger := e.logger.With("run_id", report.RunID)

	for i, rec := range w.Records {
		row := w.FirstRow + i
		acct := e.normalizer.Normalize(rec.AccountNumber)

		if acct == "" {
			fmt.Fprintf(e.progress, "[Row %d / %d] Skipping record with empty account number (ID: %s)\n", row, w.Total, rec.ID)
			report.skip()
			continue
		}
		if rec.IsEmail != 1 {
			fmt.Fprintf(e.progress, "[Row %d / %d] Skipping account %s (opted out)\n", row, w.Total, acct)
			report.skip()
			continue
		}

		email := e.extractEmail(rec.PlayerData)
		if email == "" {
			fmt.Fprintf(e.progress, "[Row %d / %d] Skipping account %s (no email address)\n", row, w.Total, acct)
			report.skip()
			continue
		}

		fmt.Fprintf(e.progress, "[Row %d / %d] Sending email to %s (%s) [%s]... ", row, w.Total, acct, email, rec.Status)
		if err := e.caller.SendEmail(ctx, acct, p.StartDate(), p.EndDate(), email); err != nil {
			fmt.Fprintf(e.progress, "✗ Failed: %s\n", err)
			logger.Warn("email send failed", "account", acct, "error", err)
			report.failure(acct, email, err.Error())
			continue
		}
		fmt.Fprintf(e.progress, "✓ Success\n")
		report.success()
	}

	return report
}

// extractEmail decrypts the record payload and pulls playerInfo.email.
// Anything missing or malformed yields "", which the caller skips.
func (e *Engine) extractEmail(playerData string) string {
	if playerData == "" {
		return ""
	}
	doc, ok := envelope.DecryptJSON(playerData, e.key)
	if !ok {
		return ""
	}
	info, ok := doc["playerInfo"].(map[string]any)
	if !ok {
		return ""
	}
	email, _ := info["email"].(string)
	return strings.TrimSpace(email)
}
