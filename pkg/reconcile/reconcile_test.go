// Test Type: Unit Test
// Description: Tests for the reconcile package - source walk and work
// item emission

package reconcile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/reconcile"
	"github.com/arthur-debert/snapback/pkg/types"
)

// buildTree creates files under dir; entries ending in "/" are
// directories.
func buildTree(t *testing.T, dir string, entries map[string]string) {
	t.Helper()
	for rel, content := range entries {
		path := filepath.Join(dir, rel)
		if rel[len(rel)-1] == '/' {
			require.NoError(t, os.MkdirAll(path, 0755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func collect(t *testing.T, r *reconcile.Reconciler) []types.WorkItem {
	t.Helper()
	var items []types.WorkItem
	require.NoError(t, r.Walk(func(item types.WorkItem) error {
		items = append(items, item)
		return nil
	}))
	return items
}

func TestNew_InvalidSource(t *testing.T) {
	_, err := reconcile.New(filepath.Join(t.TempDir(), "missing"), t.TempDir(), "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidSource))

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = reconcile.New(file, t.TempDir(), "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidSource))
}

func TestWalk_FirstRunEmitsOnlyCopies(t *testing.T) {
	source := t.TempDir()
	buildTree(t, source, map[string]string{
		"a.txt":      "a",
		"sub/b.txt":  "b",
		"sub/deep/":  "",
		"sub/c.txt":  "c",
		"empty-dir/": "",
	})

	dest := filepath.Join(t.TempDir(), "dest")
	r, err := reconcile.New(source, dest, "")
	require.NoError(t, err)

	items := collect(t, r)

	var dirs, files int
	for _, item := range items {
		switch item.Kind {
		case types.ItemDir:
			dirs++
		case types.ItemFile:
			files++
			assert.Empty(t, item.Base, "no base snapshot, nothing to link from")
		}
		assert.Equal(t, filepath.Join(dest, item.Rel), item.Dest)
	}
	assert.Equal(t, 4, dirs, "root, sub, sub/deep, empty-dir, and nothing else")
	assert.Equal(t, 3, files)
}

func TestWalk_ParentDirPrecedesContents(t *testing.T) {
	source := t.TempDir()
	buildTree(t, source, map[string]string{
		"x/y/z/file.txt": "data",
	})

	r, err := reconcile.New(source, filepath.Join(t.TempDir(), "dest"), "")
	require.NoError(t, err)

	seenDirs := map[string]bool{}
	require.NoError(t, r.Walk(func(item types.WorkItem) error {
		if item.Kind == types.ItemDir {
			seenDirs[item.Rel] = true
			return nil
		}
		parent := filepath.Dir(item.Rel)
		assert.True(t, seenDirs[parent], "directory %s must be emitted before file %s", parent, item.Rel)
		return nil
	}))
}

func TestWalk_BaseCandidates(t *testing.T) {
	source := t.TempDir()
	base := t.TempDir()

	buildTree(t, source, map[string]string{
		"unchanged.txt":  "same",
		"new.txt":        "new",
		"was-a-dir":      "now a file",
		"sub/nested.txt": "deep",
	})
	buildTree(t, base, map[string]string{
		"unchanged.txt":  "same",
		"was-a-dir/":     "",
		"sub/nested.txt": "deep",
	})

	r, err := reconcile.New(source, filepath.Join(t.TempDir(), "dest"), base)
	require.NoError(t, err)

	byRel := map[string]types.WorkItem{}
	for _, item := range collect(t, r) {
		if item.Kind == types.ItemFile {
			byRel[item.Rel] = item
		}
	}

	assert.Equal(t, filepath.Join(base, "unchanged.txt"), byRel["unchanged.txt"].Base)
	assert.Equal(t, filepath.Join(base, "sub/nested.txt"), byRel[filepath.Join("sub", "nested.txt")].Base)
	assert.Empty(t, byRel["new.txt"].Base, "no corresponding base entry")
	assert.Empty(t, byRel["was-a-dir"].Base, "kind mismatch must never become a link candidate")
}

func TestWalk_SymlinkInBaseIsNotACandidate(t *testing.T) {
	source := t.TempDir()
	base := t.TempDir()
	buildTree(t, source, map[string]string{"f.txt": "data"})

	target := filepath.Join(base, "real")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0644))
	require.NoError(t, os.Symlink(target, filepath.Join(base, "f.txt")))

	r, err := reconcile.New(source, filepath.Join(t.TempDir(), "dest"), base)
	require.NoError(t, err)

	for _, item := range collect(t, r) {
		if item.Kind == types.ItemFile && item.Rel == "f.txt" {
			assert.Empty(t, item.Base)
		}
	}
}

func TestWalk_SkipsNonRegularSourceEntries(t *testing.T) {
	source := t.TempDir()
	buildTree(t, source, map[string]string{"f.txt": "data"})
	require.NoError(t, os.Symlink(filepath.Join(source, "f.txt"), filepath.Join(source, "link")))

	r, err := reconcile.New(source, filepath.Join(t.TempDir(), "dest"), "")
	require.NoError(t, err)

	items := collect(t, r)
	for _, item := range items {
		assert.NotEqual(t, "link", item.Rel, "symlinks are not part of the mirror")
	}
	assert.Len(t, items, 2, "root dir and f.txt")
}

func TestCountFiles(t *testing.T) {
	source := t.TempDir()
	buildTree(t, source, map[string]string{
		"a":      "1",
		"b/c":    "2",
		"b/d":    "3",
		"empty/": "",
	})

	r, err := reconcile.New(source, filepath.Join(t.TempDir(), "dest"), "")
	require.NoError(t, err)

	count, err := r.CountFiles()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestWalk_EmitErrorStopsWalk(t *testing.T) {
	source := t.TempDir()
	buildTree(t, source, map[string]string{"a": "1", "b": "2", "c": "3"})

	r, err := reconcile.New(source, filepath.Join(t.TempDir(), "dest"), "")
	require.NoError(t, err)

	calls := 0
	stop := errors.New(errors.ErrInternal, "stop")
	err = r.Walk(func(types.WorkItem) error {
		calls++
		return stop
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
