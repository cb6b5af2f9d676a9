package emailflags

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarterlabs/statement-dispatch/pkg/account"
	"github.com/quarterlabs/statement-dispatch/pkg/batch"
	"github.com/quarterlabs/statement-dispatch/pkg/envelope"
)

type fakeStore struct {
	players []batch.Record
	flagged []string
}

func (f *fakeStore) Players(context.Context) ([]batch.Record, error) {
	return f.players, nil
}

func (f *fakeStore) SetEmailFlag(_ context.Context, id string) error {
	f.flagged = append(f.flagged, id)
	return nil
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"Acct,Name,Is Email",
		"A100,Alice,TRUE",
		"A200,Bob,FALSE",
		" A 300 ,Carol,yes",
		"A400,Dave,1",
		",Empty,TRUE",
		"A500,Eve,0",
	}, "\n"))

	got, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, 6, got.Rows)
	assert.Len(t, got.Accounts, 3)
	assert.Contains(t, got.Accounts, "A100")
	assert.Contains(t, got.Accounts, "A300", "accounts are normalized")
	assert.Contains(t, got.Accounts, "A400")
}

func TestReadCSV_SemicolonDelimiter(t *testing.T) {
	path := writeCSV(t, "Account Number;Is Email\nB1;T\nB2;N\n")

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Len(t, got.Accounts, 1)
	assert.Contains(t, got.Accounts, "B1")
}

func TestReadCSV_MissingColumns(t *testing.T) {
	path := writeCSV(t, "Name,Phone\nAlice,123\n")
	_, err := ReadCSV(path)
	assert.Error(t, err)

	path = writeCSV(t, "Acct,Phone\nA1,123\n")
	_, err = ReadCSV(path)
	assert.Error(t, err)
}

func TestReadCSV_FileMissing(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	key := envelope.KeyFromHex(strings.Repeat("5f", 32))
	require.NotNil(t, key)

	encrypted, err := envelope.Encrypt("A100", key)
	require.NoError(t, err)

	st := &fakeStore{players: []batch.Record{
		{ID: "p-1", AccountNumber: encrypted, IsEmail: 0}, // matches after decryption
		{ID: "p-2", AccountNumber: "A200", IsEmail: 1},    // already flagged
		{ID: "p-3", AccountNumber: "A300", IsEmail: 0},    // plaintext match
		{ID: "p-4", AccountNumber: "A999", IsEmail: 0},    // not in CSV
	}}

	accounts := map[string]struct{}{
		"A100": {}, "A200": {}, "A300": {}, "A777": {},
	}

	report, err := Apply(context.Background(), st, account.NewNormalizer(key), accounts, false)
	require.NoError(t, err)

	assert.Equal(t, 4, report.CSVAccounts)
	assert.Equal(t, 3, report.Matched)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.AlreadySet)
	assert.Equal(t, []string{"A777"}, report.NotFound)
	assert.ElementsMatch(t, []string{"p-1", "p-3"}, st.flagged)
}

func TestApply_MatchesRawStoredValue(t *testing.T) {
	// CSV carries the encrypted value verbatim; match without a key.
	st := &fakeStore{players: []batch.Record{
		{ID: "p-1", AccountNumber: "ENC:aa:bb:cc", IsEmail: 0},
	}}

	report, err := Apply(context.Background(), st, account.NewNormalizer(nil),
		map[string]struct{}{"ENC:aa:bb:cc": {}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, []string{"p-1"}, st.flagged)
}

func TestApply_DryRun(t *testing.T) {
	st := &fakeStore{players: []batch.Record{
		{ID: "p-1", AccountNumber: "A100", IsEmail: 0},
	}}

	report, err := Apply(context.Background(), st, account.NewNormalizer(nil),
		map[string]struct{}{"A100": {}}, true)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated, "dry run still counts what would change")
	assert.Empty(t, st.flagged, "dry run must not touch the store")
}
