// Test Type: Unit Test
// Description: Tests for the errors package - codes, wrapping, matching

package errors_test

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/snapback/pkg/errors"
)

func TestNewAndCode(t *testing.T) {
	err := errors.New(errors.ErrInvalidRoot, "root missing")
	assert.Equal(t, "[INVALID_ROOT] root missing", err.Error())
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidRoot))
	assert.False(t, errors.IsErrorCode(err, errors.ErrCommit))
	assert.Equal(t, errors.ErrInvalidRoot, errors.GetErrorCode(err))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := os.ErrPermission
	err := errors.Wrapf(cause, errors.ErrCopy, "failed to copy %s", "a/b")

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, os.ErrPermission))
	assert.True(t, errors.IsErrorCode(err, errors.ErrCopy))
	assert.Contains(t, err.Error(), "a/b")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrCopy, "nope"))
	assert.Nil(t, errors.Wrapf(nil, errors.ErrCopy, "nope %d", 1))
}

func TestIsMatchesByCode(t *testing.T) {
	a := errors.New(errors.ErrContainment, "one message")
	b := errors.New(errors.ErrContainment, "another message")
	assert.True(t, stderrors.Is(a, b))
}

func TestCodeSurvivesFmtWrapping(t *testing.T) {
	inner := errors.New(errors.ErrCompare, "read failed")
	outer := fmt.Errorf("while reconciling: %w", inner)
	assert.True(t, errors.IsErrorCode(outer, errors.ErrCompare))
}

func TestGetErrorCode_ForeignError(t *testing.T) {
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrLink, "link failed").
		WithDetail("base", "/b/f").
		WithDetail("dest", "/d/f")
	assert.Equal(t, "/b/f", err.Details["base"])
	assert.Equal(t, "/d/f", err.Details["dest"])
}
