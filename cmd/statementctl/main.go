// Command statementctl drives the quarterly statement batch workflows:
// PDF export for all members, precommitment email dispatch for a
// generation batch, and email opt-in flag imports from a contact CSV.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint, split from main for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "export":
		return runExportCmd(args[2:], stdout, stderr)
	case "send":
		return runSendCmd(args[2:], stdout, stderr)
	case "batches":
		return runBatchesCmd(stdout, stderr)
	case "flags":
		return runFlagsCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: statementctl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  export    Generate quarterly statement PDFs for all members")
	fmt.Fprintln(w, "  send      Send precommitment emails for a generation batch")
	fmt.Fprintln(w, "  batches   List generation batches")
	fmt.Fprintln(w, "  flags     Import email opt-in flags from a contact CSV")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'statementctl <command> -h' for command flags.")
}
