package scheduler

import (
	stderrors "errors"
	"io"
	"os"
	"syscall"

	"github.com/cenkalti/backoff"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/types"
)

// ioRetries bounds the backoff retries around per-item filesystem I/O.
// Transient errors get another chance; persistent ones surface as the
// item's failure.
const ioRetries = 2

// execute runs one work item end-to-end and returns its result.
func (s *Scheduler) execute(item types.WorkItem) types.WorkResult {
	action, err := s.materialize(item)
	return types.WorkResult{Item: item, Action: action, Err: err}
}

func (s *Scheduler) materialize(item types.WorkItem) (types.Action, error) {
	if item.Kind == types.ItemDir {
		if err := os.MkdirAll(item.Dest, 0755); err != nil {
			return "", errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", item.Dest)
		}
		return types.ActionDirCreated, nil
	}

	if item.Base != "" {
		equal, err := s.compareWithRetry(item.Base, item.Source)
		if err != nil {
			// Never read a comparison failure as a verdict either way.
			return "", err
		}
		if equal {
			err := os.Link(item.Base, item.Dest)
			if err == nil {
				s.log.Trace().Str("base", item.Base).Str("dest", item.Dest).Msg("hardlinked")
				return types.ActionLinked, nil
			}
			// A base on another volume cannot be hardlinked; that is
			// an environment condition, so fall back to copying.
			if !stderrors.Is(err, syscall.EXDEV) {
				return "", errors.Wrapf(err, errors.ErrLink, "failed to link %s to %s", item.Base, item.Dest)
			}
			s.log.Debug().Str("base", item.Base).Msg("base is on another volume, copying instead")
		}
	}

	if err := s.copyWithRetry(item.Source, item.Dest); err != nil {
		return "", err
	}
	return types.ActionCopied, nil
}

// compareWithRetry reruns the full comparison on transient read errors.
func (s *Scheduler) compareWithRetry(base, source string) (bool, error) {
	var equal bool
	op := func() error {
		var err error
		equal, err = s.comparator.Equal(base, source)
		return err
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), ioRetries)); err != nil {
		return false, err
	}
	return equal, nil
}

// copyWithRetry copies source to dest, preserving mode and mtime. A
// retried attempt first removes the partial destination.
func (s *Scheduler) copyWithRetry(source, dest string) error {
	op := func() error {
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrCopy, "failed to clear partial copy %s", dest)
		}
		return copyFile(source, dest)
	}
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), ioRetries))
}

// copyFile is a byte-for-byte copy that carries over the source's
// permission bits and modification time.
func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCopy, "failed to open %s", source)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, errors.ErrCopy, "failed to stat %s", source)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, errors.ErrCopy, "failed to create %s", dest)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, errors.ErrCopy, "failed to copy %s to %s", source, dest)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrCopy, "failed to close %s", dest)
	}

	// The create mode is filtered by the umask; restore the exact bits.
	if err := os.Chmod(dest, info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, errors.ErrCopy, "failed to set permissions on %s", dest)
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return errors.Wrapf(err, errors.ErrCopy, "failed to set times on %s", dest)
	}
	return nil
}
