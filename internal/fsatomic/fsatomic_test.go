package fsatomic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFile_CreatesFileAndParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "out.txt")

	err := WriteFile(path, []byte("hello"), Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestWriteFile_ReplacesExistingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, WriteFile(path, []byte("first"), Options{}))
	require.NoError(t, WriteFile(path, []byte("second"), Options{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(data))
}

func TestWriteFile_LeavesNoTempArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, WriteFile(path, []byte("content"), Options{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.Contains(e.Name(), ".tmp."),
			"temp artifact left behind: %s", e.Name())
	}
	require.Len(t, entries, 1)
}

func TestWriteFile_BackupPreservesPreviousContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, WriteFile(path, []byte("old"), Options{}))
	require.NoError(t, WriteFile(path, []byte("new"), Options{Backup: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	require.Equal(t, "old", string(bak))
}

func TestWriteFile_NoBackupWhenDestinationMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, WriteFile(path, []byte("fresh"), Options{Backup: true}))

	_, err := os.Stat(path + ".bak")
	require.True(t, os.IsNotExist(err), "backup should not exist for a fresh file")
}

func TestWriteFile_Perm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, WriteFile(path, []byte("x"), Options{Perm: 0o600}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadFile_StripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.txt")

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("シフト表")...)
	require.NoError(t, os.WriteFile(path, withBOM, 0o644))

	data, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "シフト表", string(data))
}

func TestReadFile_NoBOMUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")

	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))

	data, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "plain", string(data))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestWriteFile_RoundTripNeverWritesBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.txt")

	require.NoError(t, WriteFile(path, []byte("月火水木金土日"), Options{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.HasPrefix(string(raw), "\xEF\xBB\xBF"))
}
