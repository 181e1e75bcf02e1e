// Test Type: Unit Test
// Description: Tests for the retention package - age-based snapshot
// removal and temporary cleanup

package retention_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/snapback/pkg/retention"
	"github.com/arthur-debert/snapback/pkg/store"
)

func mkSnapshot(t *testing.T, root string, age time.Duration, temporary bool) string {
	t.Helper()
	name := store.FormatName(time.Now().UTC().Add(-age))
	if temporary {
		name += store.TmpSuffix
	}
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "f"), []byte("x"), 0644))
	return path
}

func TestApply_RemovesOnlyExpired(t *testing.T) {
	root := t.TempDir()
	st, err := store.New(root)
	require.NoError(t, err)

	day := 24 * time.Hour
	tenDays := mkSnapshot(t, st.Root(), 10*day, false)
	threeDays := mkSnapshot(t, st.Root(), 3*day, false)
	oneDay := mkSnapshot(t, st.Root(), 1*day, false)

	removed, err := retention.New(7 * day).Apply(st, time.Now().UTC())
	require.NoError(t, err)

	require.Len(t, removed, 1)
	assert.Equal(t, tenDays, removed[0].Path)

	_, err = os.Stat(tenDays)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(threeDays)
	assert.NoError(t, err)
	_, err = os.Stat(oneDay)
	assert.NoError(t, err)
}

func TestApply_DisabledPolicyRemovesNothing(t *testing.T) {
	root := t.TempDir()
	st, err := store.New(root)
	require.NoError(t, err)

	old := mkSnapshot(t, st.Root(), 100*24*time.Hour, false)

	for _, maxAge := range []time.Duration{0, -time.Hour} {
		removed, err := retention.New(maxAge).Apply(st, time.Now().UTC())
		require.NoError(t, err)
		assert.Empty(t, removed)
	}

	_, err = os.Stat(old)
	assert.NoError(t, err)
}

func TestApply_NeverTouchesTemporaries(t *testing.T) {
	root := t.TempDir()
	st, err := store.New(root)
	require.NoError(t, err)

	// Ancient, but temporary: retention leaves it to CleanTemporary.
	tmp := mkSnapshot(t, st.Root(), 100*24*time.Hour, true)

	removed, err := retention.New(7 * 24 * time.Hour).Apply(st, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = os.Stat(tmp)
	assert.NoError(t, err)
}

func TestCleanTemporary(t *testing.T) {
	root := t.TempDir()
	st, err := store.New(root)
	require.NoError(t, err)

	committed := mkSnapshot(t, st.Root(), time.Hour, false)
	tmpOld := mkSnapshot(t, st.Root(), 30*24*time.Hour, true)
	tmpNew := mkSnapshot(t, st.Root(), time.Minute, true)
	foreign := filepath.Join(st.Root(), "README")
	require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0644))

	removed, err := retention.CleanTemporary(st)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	for _, gone := range []string{tmpOld, tmpNew} {
		_, err = os.Stat(gone)
		assert.True(t, os.IsNotExist(err))
	}
	_, err = os.Stat(committed)
	assert.NoError(t, err)
	_, err = os.Stat(foreign)
	assert.NoError(t, err, "foreign entries are never auto-deleted")
}
