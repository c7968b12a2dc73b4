package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/pagebound-server/internal/auth"
	"github.com/listenupapp/pagebound-server/internal/backup"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pagebound-admin", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"reconcile", "reindex", "mint-token", "seed", "outbox", "backup", "restore"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("data-path"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
}

// runAdmin executes the root command against dataDir and returns stdout.
func runAdmin(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{
		"--data-path", dataDir,
		"--env-file", filepath.Join(dataDir, "missing.env"),
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeData[T any](t *testing.T, raw string) T {
	t.Helper()
	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp), raw)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestInvalidFormat(t *testing.T) {
	_, err := runAdmin(t, t.TempDir(), "--format", "yaml", "reindex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMintToken(t *testing.T) {
	dir := t.TempDir()

	out, err := runAdmin(t, dir, "--format", "json", "mint-token", "reader-7")
	require.NoError(t, err)
	res := decodeData[TokenResult](t, out)
	assert.Equal(t, "reader-7", res.ReaderID)
	assert.NotEmpty(t, res.Token)

	// The key was generated into the data directory; the server would load
	// the same one.
	key, err := auth.LoadOrGenerateKey(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)
	claims, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "reader-7", claims.ReaderID)
}

func TestMintToken_TextOutputIsBareToken(t *testing.T) {
	out, err := runAdmin(t, t.TempDir(), "mint-token", "reader-1")
	require.NoError(t, err)
	assert.NotContains(t, out, "{")
	assert.Regexp(t, `^v4\.local\.\S+\n$`, out)
}

func TestMintToken_RequiresReader(t *testing.T) {
	_, err := runAdmin(t, t.TempDir(), "mint-token")
	require.Error(t, err)
}

func TestSeedReindexReconcile(t *testing.T) {
	dir := t.TempDir()

	out, err := runAdmin(t, dir, "--format", "json", "seed", "--readers", "2", "--books", "5", "--seed", "42")
	require.NoError(t, err)
	seeded := decodeData[SeedResult](t, out)
	assert.Equal(t, 5, seeded.Books)
	assert.Equal(t, 2, seeded.Readers)
	assert.GreaterOrEqual(t, seeded.Records, 2)

	out, err = runAdmin(t, dir, "--format", "json", "outbox")
	require.NoError(t, err)
	pending := decodeData[map[string]int](t, out)
	assert.Zero(t, pending["pending"])

	out, err = runAdmin(t, dir, "--format", "json", "reindex")
	require.NoError(t, err)
	indexed := decodeData[map[string]int](t, out)
	assert.Equal(t, seeded.Records, indexed["documents"])

	out, err = runAdmin(t, dir, "--format", "json", "reconcile")
	require.NoError(t, err)
	report := decodeData[ReconcileResult](t, out)
	assert.Equal(t, 5, report.Books)
	assert.Equal(t, 2, report.Readers)
	assert.Zero(t, report.Failures)

	out, err = runAdmin(t, dir, "reconcile", "--reader", "reader-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Reconciled reader reader-1")
}

func TestSeed_RejectsBadCounts(t *testing.T) {
	_, err := runAdmin(t, t.TempDir(), "seed", "--books", "0")
	require.Error(t, err)

	_, err = runAdmin(t, t.TempDir(), "seed", "--readers", "0")
	require.Error(t, err)
}

func TestBackupRestore(t *testing.T) {
	src := t.TempDir()
	_, err := runAdmin(t, src, "seed", "--readers", "2", "--books", "4", "--seed", "7")
	require.NoError(t, err)

	archive := filepath.Join(t.TempDir(), "snapshot.pagebound.zip")
	out, err := runAdmin(t, src, "--format", "json", "backup", "create", "--output", archive)
	require.NoError(t, err)
	created := decodeData[backup.BackupResult](t, out)
	assert.Equal(t, archive, created.Path)
	assert.Equal(t, 4, created.Counts.Books)
	assert.FileExists(t, archive)

	// Restoring over the source is refused.
	_, err = runAdmin(t, src, "restore", archive)
	require.ErrorIs(t, err, backup.ErrStoreNotEmpty)

	dst := t.TempDir()
	out, err = runAdmin(t, dst, "--format", "json", "restore", archive)
	require.NoError(t, err)
	restored := decodeData[RestoreCommandResult](t, out)
	assert.Empty(t, restored.Errors)
	assert.Equal(t, 4, restored.Imported["books"])
	assert.Equal(t, created.Counts.Records, restored.Imported["records"])
	require.NotNil(t, restored.Reconciled)
	assert.Equal(t, 4, restored.Reconciled.Books)
	assert.Equal(t, created.Counts.Records, restored.Indexed)
}

func TestBackupListAndDelete(t *testing.T) {
	dir := t.TempDir()

	out, err := runAdmin(t, dir, "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No backups")

	_, err = runAdmin(t, dir, "backup", "create", "--no-activities")
	require.NoError(t, err)

	out, err = runAdmin(t, dir, "--format", "json", "backup", "list")
	require.NoError(t, err)
	list := decodeData[[]backup.BackupInfo](t, out)
	require.Len(t, list, 1)

	_, err = runAdmin(t, dir, "backup", "delete", list[0].ID)
	require.NoError(t, err)

	_, err = runAdmin(t, dir, "backup", "delete", list[0].ID)
	require.ErrorIs(t, err, backup.ErrBackupNotFound)
}

func TestRestore_DryRun(t *testing.T) {
	src := t.TempDir()
	_, err := runAdmin(t, src, "seed", "--readers", "1", "--books", "2", "--seed", "3")
	require.NoError(t, err)

	archive := filepath.Join(t.TempDir(), "dry.pagebound.zip")
	_, err = runAdmin(t, src, "backup", "create", "-o", archive)
	require.NoError(t, err)

	// A dry run writes nothing, so the source itself is an acceptable target.
	out, err := runAdmin(t, src, "--format", "json", "restore", "--dry-run", archive)
	require.NoError(t, err)
	res := decodeData[RestoreCommandResult](t, out)
	assert.Equal(t, 2, res.Imported["books"])
	assert.Nil(t, res.Reconciled)
}
