package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/quarterlabs/statement-dispatch/pkg/account"
	"github.com/quarterlabs/statement-dispatch/pkg/config"
	"github.com/quarterlabs/statement-dispatch/pkg/emailflags"
	"github.com/quarterlabs/statement-dispatch/pkg/store"
)

// runFlagsCmd implements `statementctl flags`.
//
// Exit codes:
//
//	0 = import completed (or dry run reported)
//	2 = configuration, CSV, or store error
func runFlagsCmd(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	cmd := flag.NewFlagSet("flags", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		csvPath string
		dryRun  bool
	)
	cmd.StringVar(&csvPath, "csv", "", "Contact CSV with account and Is Email columns (REQUIRED)")
	cmd.BoolVar(&dryRun, "dry-run", false, "Report what would change without updating")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if csvPath == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -csv is required")
		return 2
	}

	accounts, err := emailflags.ReadCSV(csvPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintf(stdout, "CSV rows: %d, accounts opted in: %d\n", accounts.Rows, len(accounts.Accounts))
	if len(accounts.Accounts) == 0 {
		fmt.Fprintln(stdout, "No accounts with Is Email = TRUE. Nothing to do.")
		return 0
	}

	ctx := context.Background()

	fmt.Fprintln(stdout, "Connecting to database...")
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer st.Close()

	normalizer := account.NewNormalizer(cfg.EncryptionKey)
	report, err := emailflags.Apply(ctx, st, normalizer, accounts.Accounts, dryRun)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	report.WriteSummary(stdout)
	return 0
}
