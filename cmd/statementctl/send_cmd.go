package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/quarterlabs/statement-dispatch/pkg/account"
	"github.com/quarterlabs/statement-dispatch/pkg/batch"
	"github.com/quarterlabs/statement-dispatch/pkg/config"
	"github.com/quarterlabs/statement-dispatch/pkg/dispatch"
	"github.com/quarterlabs/statement-dispatch/pkg/period"
	"github.com/quarterlabs/statement-dispatch/pkg/store"
)

// runSendCmd implements `statementctl send`. Without -batch-id it lists
// the available generation batches and exits; batch selection is an
// explicit flag, never an interactive prompt.
//
// Exit codes:
//
//	0 = run completed (individual record failures are reported, not fatal)
//	2 = configuration or startup error
func runSendCmd(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	cmd := flag.NewFlagSet("send", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		batchID        string
		token          string
		startFromIndex int
		filterStatus   string
	)
	cmd.StringVar(&batchID, "batch-id", "", "Generation batch to process")
	cmd.StringVar(&token, "token", cfg.APIToken, "Statement API token")
	cmd.IntVar(&startFromIndex, "start-from-index", 0, "Row number to resume from (1-based)")
	cmd.StringVar(&filterStatus, "filter-status", "", "Only process records with this play status")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()

	if batchID == "" {
		if code := listBatches(ctx, cfg, stdout, stderr); code != 0 {
			return code
		}
		_, _ = fmt.Fprintln(stderr, "\nError: -batch-id is required")
		return 2
	}

	client, err := dispatch.NewClient(cfg.APIBaseURL, token)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v (set QUARTERLY_PDF_API_TOKEN or pass -token)\n", err)
		return 2
	}

	fmt.Fprintln(stdout, "Connecting to database...")
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer st.Close()

	gen, err := st.Generation(ctx, batchID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if gen == nil {
		_, _ = fmt.Fprintf(stderr, "Error: batch %q not found\n", batchID)
		return 2
	}

	p, ok := period.ParseRange(gen.StatementPeriod)
	if !ok {
		_, _ = fmt.Fprintf(stderr, "Error: cannot parse statement period %q\n", gen.StatementPeriod)
		return 2
	}

	records, err := st.BatchAccounts(ctx, batchID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if len(records) == 0 {
		fmt.Fprintln(stdout, "No accounts found in this batch.")
		return 0
	}

	normalizer := account.NewNormalizer(cfg.EncryptionKey)
	cursor := batch.Cursor{StartFromIndex: startFromIndex, StatusFilter: filterStatus}
	w, err := cursor.Apply(normalizer.Normalize, records)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(stdout, "Batch: %s\n", gen.ID)
	fmt.Fprintf(stdout, "Period: %s (%s to %s)\n", gen.StatementPeriod, p.StartDate(), p.EndDate())
	fmt.Fprintf(stdout, "Processing %d of %d accounts...\n\n", len(w.Records), w.Total)

	engine := dispatch.NewEngine(client, normalizer, cfg.EncryptionKey, stdout)
	report := engine.RunSend(ctx, w, p)
	report.WriteSummary(stdout)
	return 0
}

// runBatchesCmd implements `statementctl batches`.
func runBatchesCmd(stdout, stderr io.Writer) int {
	cfg := config.Load()
	return listBatches(context.Background(), cfg, stdout, stderr)
}

func listBatches(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer st.Close()

	gens, err := st.Generations(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if len(gens) == 0 {
		fmt.Fprintln(stdout, "No generation batches found.")
		return 0
	}

	fmt.Fprintln(stdout, "Available generation batches:")
	for _, g := range gens {
		fmt.Fprintf(stdout, "  %s\n", g.ID)
		fmt.Fprintf(stdout, "    Period: %s | Statement date: %s\n", g.StatementPeriod, orNA(g.StatementDate))
		fmt.Fprintf(stdout, "    Players: %d | Generated: %s\n", g.TotalPlayers, g.GenerationDate.Format("2006-01-02 15:04:05"))
	}
	return 0
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
