package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"statementctl"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Usage: statementctl")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"statementctl", "frobnicate"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Unknown command: frobnicate")
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"statementctl", "help"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "export")
	assert.Contains(t, stdout.String(), "send")
	assert.Contains(t, stdout.String(), "flags")
}

func TestExport_RequiresToken(t *testing.T) {
	t.Setenv("QUARTERLY_PDF_API_TOKEN", "")

	var stdout, stderr bytes.Buffer
	code := Run([]string{"statementctl", "export"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "token is required")
}

func TestExport_RejectsBadDates(t *testing.T) {
	t.Setenv("QUARTERLY_PDF_API_TOKEN", "tok")

	var stdout, stderr bytes.Buffer
	code := Run([]string{"statementctl", "export", "-start-date", "07/01/2025"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "invalid start date")
}

func TestSend_RequiresToken(t *testing.T) {
	t.Setenv("QUARTERLY_PDF_API_TOKEN", "")

	var stdout, stderr bytes.Buffer
	code := Run([]string{"statementctl", "send", "-batch-id", "b-1"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "token is required")
}

func TestFlags_RequiresCSV(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"statementctl", "flags"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.True(t, strings.Contains(stderr.String(), "-csv is required"))
}
