package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "old.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0600))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "new.pdf")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0600))

	sweeper := NewStorageSweeper(dir, 24*time.Hour)
	removed, err := sweeper.Sweep()
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestSweepMissingDirIsNotAnError(t *testing.T) {
	sweeper := NewStorageSweeper(filepath.Join(t.TempDir(), "absent"), time.Hour)
	removed, err := sweeper.Sweep()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSweepSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "keep")
	require.NoError(t, os.Mkdir(sub, 0755))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(sub, old, old))

	sweeper := NewStorageSweeper(dir, 24*time.Hour)
	removed, err := sweeper.Sweep()
	require.NoError(t, err)

	assert.Zero(t, removed)
	assert.DirExists(t, sub)
}
