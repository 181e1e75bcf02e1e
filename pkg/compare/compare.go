// Package compare decides whether two files are byte-identical.
//
// A false "identical" verdict here silently corrupts every snapshot
// sharing the reused inode, so both strategies read file content in full.
// The only shortcut taken is a size mismatch, which is an exact proof of
// inequality, never a metadata guess. I/O errors are reported as errors,
// never folded into an equal or not-equal verdict.
package compare

import (
	"bytes"
	"io"
	"os"

	"github.com/zeebo/xxh3"

	"github.com/arthur-debert/snapback/pkg/config"
	"github.com/arthur-debert/snapback/pkg/errors"
)

const chunkSize = 64 * 1024

// Comparator reports whether two files have identical content.
type Comparator interface {
	// Name identifies the strategy, for logs and the CLI.
	Name() string

	// Equal reports whether the files at a and b are byte-identical.
	// An error means the comparison could not be carried out; the
	// caller must treat it as a failure, not as a verdict.
	Equal(a, b string) (bool, error)
}

// New returns the comparator for the given algorithm name from config
// ("bytes" or "xxh3").
func New(algo string) (Comparator, error) {
	switch algo {
	case config.HashBytes:
		return Bytes{}, nil
	case config.HashXXH3:
		return Digest{}, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown comparison algorithm %q", algo)
	}
}

// Bytes compares both files chunk by chunk.
type Bytes struct{}

func (Bytes) Name() string { return config.HashBytes }

func (Bytes) Equal(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrCompare, "failed to open %s for comparison", a)
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrCompare, "failed to open %s for comparison", b)
	}
	defer fb.Close()

	sa, err := fa.Stat()
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrCompare, "failed to stat %s", a)
	}
	sb, err := fb.Stat()
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrCompare, "failed to stat %s", b)
	}
	if sa.Size() != sb.Size() {
		return false, nil
	}

	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)
	for {
		// A real read error must surface before any verdict: a short read
		// caused by EIO or EISDIR is a failure, not a difference.
		na, errA := io.ReadFull(fa, bufA)
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return false, errors.Wrapf(errA, errors.ErrCompare, "read error while comparing %s", a)
		}
		nb, errB := io.ReadFull(fb, bufB)
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return false, errors.Wrapf(errB, errors.ErrCompare, "read error while comparing %s", b)
		}
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA != nil || errB != nil {
			// Equal so far and at least one stream ended; they are equal
			// exactly when both did.
			return errA != nil && errB != nil, nil
		}
	}
}

// Digest compares full-content xxh3-128 digests of both files.
type Digest struct{}

func (Digest) Name() string { return config.HashXXH3 }

func (Digest) Equal(a, b string) (bool, error) {
	da, err := hashFile(a)
	if err != nil {
		return false, err
	}
	db, err := hashFile(b)
	if err != nil {
		return false, err
	}
	return da == db, nil
}

func hashFile(path string) ([16]byte, error) {
	var zero [16]byte

	f, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrapf(err, errors.ErrCompare, "failed to open %s for hashing", path)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return zero, errors.Wrapf(err, errors.ErrCompare, "read error while hashing %s", path)
	}
	return h.Sum128().Bytes(), nil
}
