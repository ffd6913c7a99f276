package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"philalign/api/internal/apperr"
)

func seedCatalog(t *testing.T) (*Catalog, []string) {
	t.Helper()
	dir := t.TempDir()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	var paths []string
	for i := 0; i < 3; i++ {
		p, err := Persist(sample(), dir, "run", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		mt := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, mt, mt))
		paths = append(paths, p)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "backup_old"), 0o755))
	return NewCatalog(dir), paths
}

func TestCatalogListNewestFirst(t *testing.T) {
	c, paths := seedCatalog(t)
	all, err := c.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, paths[2], all[0].Path)
	assert.Equal(t, 1, all[0].Index)
	assert.Equal(t, paths[0], all[2].Path)
}

func TestCatalogMissingDir(t *testing.T) {
	all, err := NewCatalog(filepath.Join(t.TempDir(), "none")).List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCatalogGetOutOfRange(t *testing.T) {
	c, _ := seedCatalog(t)
	for _, i := range []int{0, 4, -1} {
		_, err := c.Get(i)
		assert.True(t, errors.Is(err, apperr.ErrNotFound), i)
	}
	l, s, err := c.Open(2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Index)
	assert.Equal(t, 5, l.Len())
}

func TestCatalogRemoveAndClear(t *testing.T) {
	c, paths := seedCatalog(t)
	s, err := c.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, paths[2], s.Path)
	_, err = os.Stat(paths[2])
	assert.True(t, os.IsNotExist(err))

	n, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	all, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = os.Stat(filepath.Join(c.Dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestCatalogClearScenario(t *testing.T) {
	c, paths := seedCatalog(t)
	n, err := c.ClearScenario(2)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	l, err := Load(paths[0])
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	g, ok := l.Lookup("openai", "gpt-4o", "standard")
	require.True(t, ok)
	assert.Zero(t, g.Summary.Errored)
}

func TestCatalogBackup(t *testing.T) {
	c, _ := seedCatalog(t)
	dst := c.BackupDir(time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC))
	assert.Equal(t, filepath.Join(c.Dir, "backup_20250601_083000"), dst)

	n, err := c.Backup(dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	copied, err := NewCatalog(dst).List()
	require.NoError(t, err)
	assert.Len(t, copied, 3)

	// the backup directory itself is not listed as a ledger
	all, err := c.List()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCatalogOrderSurvivesClearScenario(t *testing.T) {
	c, paths := seedCatalog(t)
	// the oldest file was touched last, e.g. by an editor
	now := time.Now()
	require.NoError(t, os.Chtimes(paths[0], now, now))

	_, err := c.ClearScenario(2)
	require.NoError(t, err)

	all, err := c.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{paths[2], paths[1], paths[0]}, []string{all[0].Path, all[1].Path, all[2].Path})
	assert.Equal(t, time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC), all[0].Created)

	info, err := os.Stat(paths[1])
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(time.Date(2025, 5, 1, 13, 0, 0, 0, time.UTC)), info.ModTime())

	s, err := c.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, paths[2], s.Path)
}

func TestCatalogNameStamp(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	first, err := Persist(sample(), dir, "multi_provider_comparison", at)
	require.NoError(t, err)
	second, err := Persist(sample(), dir, "multi_provider_comparison", at)
	require.NoError(t, err)
	assert.Equal(t, "multi_provider_comparison_20250501-120000-1.json", filepath.Base(second))

	other := filepath.Join(dir, "imported.json")
	require.NoError(t, os.WriteFile(other, []byte("{}"), 0o644))
	old := at.Add(-time.Hour)
	require.NoError(t, os.Chtimes(other, old, old))

	all, err := NewCatalog(dir).List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, second, all[0].Path)
	assert.Equal(t, first, all[1].Path)
	assert.Equal(t, other, all[2].Path)
	assert.True(t, all[2].Created.Equal(old))
}
