// Package store owns the backup root: snapshot naming, discovery of the
// latest completed snapshot, atomic commit, and the containment-checked
// deletion primitive every cleanup path must go through.
//
// The root is exclusively managed. Directory entries are either a
// timestamp name (committed) or a timestamp name plus ".tmp" (in
// progress); anything else that is a directory is a fatal malformed-name
// error. Non-directory entries are foreign: ignored, never deleted.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
)

const (
	// timeLayout formats the second-resolution prefix of a snapshot
	// name; six microsecond digits follow it directly. The full name is
	// fixed width and sorts lexicographically in chronological order.
	timeLayout  = "20060102_150405"
	microDigits = 6

	// TmpSuffix marks an in-progress snapshot directory.
	TmpSuffix = ".tmp"
)

// nameLen is the width of every committed snapshot name.
const nameLen = len(timeLayout) + microDigits

// Snapshot is one entry under the backup root.
type Snapshot struct {
	// Name is the directory name under the root, including TmpSuffix
	// for temporary snapshots.
	Name string

	// Path is the absolute path of the snapshot directory.
	Path string

	// Stamp is the UTC creation time encoded in the name.
	Stamp time.Time

	// Temporary marks an uncommitted leftover from an earlier run.
	Temporary bool
}

// Age returns how long ago the snapshot was created.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Stamp)
}

// Store manages a single backup root directory.
type Store struct {
	root string
	log  zerolog.Logger
}

// New opens the backup root. The root must already exist and be a
// directory; its path is canonicalized so later containment checks are
// not fooled by symlinked roots.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidRoot, "cannot resolve backup root %s", root)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidRoot, "backup root %s does not exist", root)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidRoot, "cannot stat backup root %s", resolved)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidRoot, "backup root %s is not a directory", resolved)
	}

	return &Store{
		root: resolved,
		log:  logging.GetLogger("store"),
	}, nil
}

// Root returns the canonicalized backup root path.
func (s *Store) Root() string { return s.root }

// FormatName encodes a timestamp as a snapshot name.
func FormatName(t time.Time) string {
	t = t.UTC()
	return t.Format(timeLayout) + fmt.Sprintf("%0*d", microDigits, t.Nanosecond()/1000)
}

// ParseName decodes a snapshot name back into its UTC timestamp.
func ParseName(name string) (time.Time, error) {
	if len(name) != nameLen {
		return time.Time{}, errors.Newf(errors.ErrMalformedName, "snapshot name %q has wrong length", name)
	}
	base, err := time.Parse(timeLayout, name[:len(timeLayout)])
	if err != nil {
		return time.Time{}, errors.Wrapf(err, errors.ErrMalformedName, "snapshot name %q does not match timestamp format", name)
	}
	microStr := name[len(timeLayout):]
	for i := 0; i < len(microStr); i++ {
		// Atoi alone would also accept a sign; only digits are valid here.
		if microStr[i] < '0' || microStr[i] > '9' {
			return time.Time{}, errors.Newf(errors.ErrMalformedName, "snapshot name %q has invalid microsecond digits", name)
		}
	}
	micro, err := strconv.Atoi(microStr)
	if err != nil {
		return time.Time{}, errors.Newf(errors.ErrMalformedName, "snapshot name %q has invalid microsecond digits", name)
	}
	return base.Add(time.Duration(micro) * time.Microsecond), nil
}

// AllocateNames derives the (final, temporary) directory pair for a new
// snapshot from the current UTC time. Successive calls yield strictly
// increasing, sortable names; an existing entry at either path means a
// clock-tick collision and is fatal rather than an overwrite.
func (s *Store) AllocateNames() (finalPath, tmpPath string, err error) {
	name := FormatName(time.Now())
	finalPath = filepath.Join(s.root, name)
	tmpPath = finalPath + TmpSuffix

	for _, p := range []string{finalPath, tmpPath} {
		if _, err := os.Lstat(p); err == nil {
			return "", "", errors.Newf(errors.ErrNameCollision, "snapshot path %s already exists", p)
		} else if !os.IsNotExist(err) {
			return "", "", errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", p)
		}
	}

	s.log.Debug().Str("final", finalPath).Str("tmp", tmpPath).Msg("allocated snapshot names")
	return finalPath, tmpPath, nil
}

// List enumerates all snapshots under the root, temporary ones included.
// A directory entry that is neither a timestamp nor timestamp+".tmp" is a
// fatal error: the root is exclusively managed by this tool. Foreign
// non-directory entries are skipped.
func (s *Store) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidRoot, "cannot list backup root %s", s.root)
	}

	var snaps []Snapshot
	for _, e := range entries {
		if !e.IsDir() {
			s.log.Debug().Str("entry", e.Name()).Msg("ignoring foreign entry under root")
			continue
		}
		name := e.Name()
		temporary := strings.HasSuffix(name, TmpSuffix)
		stamp, err := ParseName(strings.TrimSuffix(name, TmpSuffix))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrMalformedName, "unexpected directory %q under backup root", name)
		}
		snaps = append(snaps, Snapshot{
			Name:      name,
			Path:      filepath.Join(s.root, name),
			Stamp:     stamp,
			Temporary: temporary,
		})
	}
	return snaps, nil
}

// FindLatestCompleted returns the chronologically greatest committed
// snapshot, or nil if the root holds none.
func (s *Store) FindLatestCompleted() (*Snapshot, error) {
	snaps, err := s.List()
	if err != nil {
		return nil, err
	}

	var latest *Snapshot
	for i := range snaps {
		if snaps[i].Temporary {
			continue
		}
		if latest == nil || snaps[i].Stamp.After(latest.Stamp) {
			latest = &snaps[i]
		}
	}
	return latest, nil
}

// ListTemporary returns leftover temporary snapshots from prior runs.
func (s *Store) ListTemporary() ([]Snapshot, error) {
	snaps, err := s.List()
	if err != nil {
		return nil, err
	}
	var tmp []Snapshot
	for _, sn := range snaps {
		if sn.Temporary {
			tmp = append(tmp, sn)
		}
	}
	return tmp, nil
}

// ListOlderThan returns committed snapshots whose timestamp precedes the
// cutoff.
func (s *Store) ListOlderThan(cutoff time.Time) ([]Snapshot, error) {
	snaps, err := s.List()
	if err != nil {
		return nil, err
	}
	var old []Snapshot
	for _, sn := range snaps {
		if !sn.Temporary && sn.Stamp.Before(cutoff) {
			old = append(old, sn)
		}
	}
	return old, nil
}

// Commit renames the temporary snapshot to its final name. The rename is
// a single same-volume filesystem operation, so no intermediate state is
// ever observable: the snapshot either exists complete or not at all. On
// failure the temporary directory is left untouched for inspection.
func (s *Store) Commit(tmpPath, finalPath string) error {
	if _, err := os.Lstat(finalPath); err == nil {
		return errors.Newf(errors.ErrCommit, "final snapshot path %s already exists", finalPath)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return errors.Wrapf(err, errors.ErrCommit, "failed to commit %s to %s", tmpPath, finalPath)
	}
	s.log.Info().Str("snapshot", filepath.Base(finalPath)).Msg("snapshot committed")
	return nil
}

// RemoveTree deletes a subtree bottom-up, files before their containing
// directories. The target must be a strict descendant of the managed
// root; any path failing that check, symlink tricks and relative
// traversal included, is refused without deleting anything.
func (s *Store) RemoveTree(path string) error {
	resolved, err := s.checkContained(path)
	if err != nil {
		return err
	}

	var paths []string
	err = filepath.WalkDir(resolved, func(p string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to walk %s for deletion", resolved)
	}

	// WalkDir yields parents before children; delete in reverse.
	for i := len(paths) - 1; i >= 0; i-- {
		if err := os.Remove(paths[i]); err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "failed to remove %s", paths[i])
		}
	}

	s.log.Info().Str("path", resolved).Int("entries", len(paths)).Msg("removed tree")
	return nil
}

// checkContained canonicalizes path and walks up its ancestry until it
// reaches the root (contained) or the filesystem root (not contained).
// The path itself being the backup root also fails: only strict
// descendants may be deleted.
func (s *Store) checkContained(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrContainment, "cannot resolve deletion target %s", path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrContainment, "cannot canonicalize deletion target %s", path)
	}

	if resolved == s.root {
		return "", errors.Newf(errors.ErrContainment, "refusing to delete backup root %s itself", s.root)
	}

	for p := resolved; ; {
		parent := filepath.Dir(p)
		if parent == p {
			// Reached the filesystem root without meeting ours.
			return "", errors.Newf(errors.ErrContainment, "refusing to delete %s: not inside backup root %s", resolved, s.root)
		}
		if parent == s.root {
			return resolved, nil
		}
		p = parent
	}
}
