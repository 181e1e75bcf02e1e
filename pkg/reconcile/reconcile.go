// Package reconcile walks the source tree and produces the stream of work
// items that materializes the new snapshot as a full mirror of it.
//
// The walk is sequential so enumeration stays deterministic and cheap;
// executing the emitted items is the scheduler's job. Items are disjoint
// by destination path: every directory and every regular file yields
// exactly one item, and parents are always emitted before their contents.
package reconcile

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/types"
)

// Reconciler plans the mirror of one source tree into one destination.
type Reconciler struct {
	source string
	dest   string
	base   string
	log    zerolog.Logger
}

// New creates a Reconciler. The source must exist and be a directory.
// base is the latest committed snapshot to reuse files from, or empty on
// a first run; dest is the temporary snapshot directory (not yet
// created — its creation is the first emitted item).
func New(source, dest, base string) (*Reconciler, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidSource, "cannot resolve source %s", source)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidSource, "source %s does not exist", source)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidSource, "source %s is not a directory", abs)
	}

	return &Reconciler{
		source: abs,
		dest:   dest,
		base:   base,
		log:    logging.GetLogger("reconcile"),
	}, nil
}

// Source returns the canonicalized source path.
func (r *Reconciler) Source() string { return r.source }

// CountFiles walks the source and counts regular files, for progress
// totals. Mirrors the pre-count the progress display contract expects.
func (r *Reconciler) CountFiles() (int, error) {
	count := 0
	err := filepath.WalkDir(r.source, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrInvalidSource, "failed to count files under %s", r.source)
	}
	return count, nil
}

// Walk emits work items in walk order: each directory before anything
// inside it, each regular file with its reuse candidate from the base
// snapshot attached when one exists. A base entry that is not a regular
// file (missing, directory, symlink) never becomes a link candidate, so
// kind changes between snapshots fall back to a plain copy.
//
// emit returning an error stops the walk and is passed through.
func (r *Reconciler) Walk(emit func(types.WorkItem) error) error {
	return filepath.WalkDir(r.source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrInvalidSource, "walk failed at %s", path)
		}

		rel, err := filepath.Rel(r.source, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot relativize %s", path)
		}

		switch {
		case d.IsDir():
			return emit(types.WorkItem{
				Kind:   types.ItemDir,
				Rel:    rel,
				Source: path,
				Dest:   filepath.Join(r.dest, rel),
			})

		case d.Type().IsRegular():
			return emit(types.WorkItem{
				Kind:   types.ItemFile,
				Rel:    rel,
				Source: path,
				Dest:   filepath.Join(r.dest, rel),
				Base:   r.baseCandidate(rel),
			})

		default:
			// Sockets, devices, symlinks: not part of the mirror.
			r.log.Warn().Str("path", rel).Str("mode", d.Type().String()).Msg("skipping non-regular entry")
			return nil
		}
	})
}

// baseCandidate returns the base snapshot path for rel if it is a regular
// file there, otherwise empty.
func (r *Reconciler) baseCandidate(rel string) string {
	if r.base == "" {
		return ""
	}
	candidate := filepath.Join(r.base, rel)
	info, err := os.Lstat(candidate)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return candidate
}
