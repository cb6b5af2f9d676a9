package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/quarterlabs/statement-dispatch/pkg/account"
	"github.com/quarterlabs/statement-dispatch/pkg/artifacts"
	"github.com/quarterlabs/statement-dispatch/pkg/batch"
	"github.com/quarterlabs/statement-dispatch/pkg/config"
	"github.com/quarterlabs/statement-dispatch/pkg/dispatch"
	"github.com/quarterlabs/statement-dispatch/pkg/period"
	"github.com/quarterlabs/statement-dispatch/pkg/store"
)

// runExportCmd implements `statementctl export`.
//
// Exit codes:
//
//	0 = run completed (individual record failures are reported, not fatal)
//	2 = configuration or startup error
func runExportCmd(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	cmd := flag.NewFlagSet("export", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		startDate        string
		endDate          string
		token            string
		startFromAccount string
		skipExisting     bool
		artifactDir      string
	)
	cmd.StringVar(&startDate, "start-date", cfg.StartDate, "Period start (YYYY-MM-DD)")
	cmd.StringVar(&endDate, "end-date", cfg.EndDate, "Period end (YYYY-MM-DD)")
	cmd.StringVar(&token, "token", cfg.APIToken, "Statement API token")
	cmd.StringVar(&startFromAccount, "start-from-account", "", "Resume from the first account >= this value")
	cmd.BoolVar(&skipExisting, "skip-existing", false, "Skip accounts whose statement PDF already exists")
	cmd.StringVar(&artifactDir, "artifact-dir", cfg.ArtifactDir, "Root directory of per-period statement folders")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	p, err := parsePeriod(startDate, endDate)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	client, err := dispatch.NewClient(cfg.APIBaseURL, token)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v (set QUARTERLY_PDF_API_TOKEN or pass -token)\n", err)
		return 2
	}

	ctx := context.Background()

	fmt.Fprintf(stdout, "Date range: %s to %s\n", p.StartDate(), p.EndDate())
	fmt.Fprintln(stdout, "Connecting to database...")
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer st.Close()

	members, err := st.Members(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if len(members) == 0 {
		fmt.Fprintln(stdout, "No members found.")
		return 0
	}

	normalizer := account.NewNormalizer(cfg.EncryptionKey)
	cursor := batch.Cursor{StartFromAccount: startFromAccount}
	w, err := cursor.Apply(normalizer.Normalize, members)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	opts := dispatch.ExportOptions{SkipExisting: skipExisting}
	if skipExisting {
		locator := artifacts.NewLocator(artifactDir)
		opts.Existing = locator.ScanExisting(p)
		fmt.Fprintf(stdout, "Found %d existing statements in %s\n", len(opts.Existing), p.Folder())
	}

	fmt.Fprintf(stdout, "Processing %d of %d members...\n\n", len(w.Records), w.Total)

	engine := dispatch.NewEngine(client, normalizer, cfg.EncryptionKey, stdout)
	report := engine.RunExport(ctx, w, p, opts)
	report.WriteSummary(stdout)
	return 0
}

// parsePeriod builds a period from explicit YYYY-MM-DD bounds.
func parsePeriod(startDate, endDate string) (period.Period, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return period.Period{}, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return period.Period{}, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	return period.FromRange(start, end), nil
}
