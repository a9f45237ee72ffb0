//go:build unit

package errs_test

import (
	"errors"
	"testing"

	"rental-settlement/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

var errSentinel = errs.New("sentinel")

func TestMark(t *testing.T) {
	t.Run("marked error matches sentinel and keeps message", func(t *testing.T) {
		cause := errors.New("connection reset")
		marked := errs.Mark(cause, errSentinel)

		assert.ErrorIs(t, marked, errSentinel)
		assert.Equal(t, "connection reset", marked.Error())
	})

	t.Run("nil cause returns the sentinel itself", func(t *testing.T) {
		assert.Equal(t, errSentinel, errs.Mark(nil, errSentinel))
	})
}

func TestWrap(t *testing.T) {
	assert.NoError(t, errs.Wrap(nil, "ignored"))

	wrapped := errs.Wrapf(errSentinel, "loading %s", "reservation")
	assert.ErrorIs(t, wrapped, errSentinel)
	assert.Equal(t, "loading reservation: sentinel", wrapped.Error())
}

func TestExtractStackLines(t *testing.T) {
	assert.Nil(t, errs.ExtractStackLines(nil, 5))

	lines := errs.ExtractStackLines(errs.Wrap(errSentinel, "outer"), 3)
	assert.Len(t, lines, 3)
}

func TestMarkVisibility(t *testing.T) {
	cause := errs.New("hold expired")
	marked := errs.Wrap(errs.Mark(cause, errSentinel), "issue intent")

	t.Run("standard library sees the mark through wrapping", func(t *testing.T) {
		assert.True(t, errors.Is(marked, errSentinel))
		assert.True(t, errors.Is(marked, cause))
	})

	t.Run("cockroachdb matcher sees the mark", func(t *testing.T) {
		assert.True(t, errs.Is(marked, errSentinel))
	})

	t.Run("unrelated sentinel does not match", func(t *testing.T) {
		assert.False(t, errors.Is(marked, errs.New("sentinel")))
	})

	t.Run("verbose format keeps the stack", func(t *testing.T) {
		assert.Greater(t, len(errs.ExtractStackLines(errs.Mark(cause, errSentinel), 0)), 1)
	})
}
