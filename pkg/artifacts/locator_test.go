package artifacts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarterlabs/statement-dispatch/pkg/period"
)

func q3_2025(t *testing.T) period.Period {
	t.Helper()
	p, ok := period.ParseRange("1 July 2025 - 30 September 2025")
	require.True(t, ok)
	return p
}

func writeArtifact(t *testing.T, root, folder, name string) string {
	t.Helper()
	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
	return path
}

func TestExpectedPath(t *testing.T) {
	l := NewLocator("/statements")
	p := q3_2025(t)

	got := l.ExpectedPath("A12345", p)
	assert.Equal(t, filepath.Join("/statements", "q3-2025", "Statement_Q3_2025_A12345.pdf"), got)

	// Sanitization strips filesystem-hostile characters.
	got = l.ExpectedPath("A/12*345", p)
	assert.Equal(t, filepath.Join("/statements", "q3-2025", "Statement_Q3_2025_A12345.pdf"), got)

	// An account that sanitizes to nothing falls back to the member token.
	got = l.ExpectedPath("@#$", p)
	assert.Equal(t, filepath.Join("/statements", "q3-2025", "Statement_Q3_2025_member.pdf"), got)
}

func TestExpectedPath_InjectiveAfterSanitization(t *testing.T) {
	l := NewLocator("/statements")
	p := q3_2025(t)

	seen := make(map[string]string)
	for _, acct := range []string{"A1", "A2", "B1", "a1", "1-2", "1_2"} {
		path := l.ExpectedPath(acct, p)
		prev, dup := seen[path]
		assert.False(t, dup, "accounts %q and %q collide on %s", prev, acct, path)
		seen[path] = acct
	}
}

func TestExists_FastPath(t *testing.T) {
	root := t.TempDir()
	l := NewLocator(root)
	p := q3_2025(t)

	expected := writeArtifact(t, root, "q3-2025", "Statement_Q3_2025_A12345.pdf")

	found, path := l.Exists("A12345", p, false)
	assert.True(t, found)
	assert.Equal(t, expected, path)

	found, path = l.Exists("B99999", p, false)
	assert.False(t, found)
	assert.Empty(t, path)
}

func TestExists_SearchAllPeriods(t *testing.T) {
	root := t.TempDir()
	l := NewLocator(root)
	p := q3_2025(t)

	// Artifact lives in an earlier quarter's folder.
	writeArtifact(t, root, "q1-2024", "Statement_Q1_2024_A12345.pdf")
	// Folders that should not be scanned.
	writeArtifact(t, root, "archive", "Statement_Q1_2020_A12345.pdf")
	writeArtifact(t, root, "q5-2024", "Statement_Q5_2024_A12345.pdf")

	found, _ := l.Exists("A12345", p, false)
	assert.False(t, found, "fast path should miss")

	found, path := l.Exists("A12345", p, true)
	assert.True(t, found)
	assert.Equal(t, filepath.Join(root, "q1-2024", "Statement_Q1_2024_A12345.pdf"), path)

	// Suffix matching must not catch accounts that merely share a suffix.
	found, _ = l.Exists("2345", p, true)
	assert.False(t, found)
}

func TestScanExisting(t *testing.T) {
	root := t.TempDir()
	l := NewLocator(root)
	p := q3_2025(t)

	writeArtifact(t, root, "q3-2025", "Statement_Q3_2025_A12345.pdf")
	writeArtifact(t, root, "q3-2025", "Statement_Q3_2025_B777.pdf")
	writeArtifact(t, root, "q3-2025", "notes.txt")
	// Other periods are out of scope for the bulk scan.
	writeArtifact(t, root, "q2-2025", "Statement_Q2_2025_C1.pdf")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "q3-2025", "subdir"), 0o755))

	existing := l.ScanExisting(p)
	assert.Len(t, existing, 2)
	assert.Contains(t, existing, "A12345")
	assert.Contains(t, existing, "B777")
	assert.NotContains(t, existing, "C1")
}

func TestScanExisting_MissingFolder(t *testing.T) {
	l := NewLocator(t.TempDir())
	existing := l.ScanExisting(period.FromDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, existing)
}
