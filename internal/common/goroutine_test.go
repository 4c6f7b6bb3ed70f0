package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestRecoverUnit(t *testing.T) {
	logger := arbor.NewNoOpLogger()

	t.Run("returns fn error", func(t *testing.T) {
		want := errors.New("boom")
		err := RecoverUnit(logger, "unit-1", func() error { return want })
		assert.ErrorIs(t, err, want)
	})

	t.Run("nil on success", func(t *testing.T) {
		assert.NoError(t, RecoverUnit(logger, "unit-2", func() error { return nil }))
	})

	t.Run("converts panic", func(t *testing.T) {
		err := RecoverUnit(logger, "unit-3", func() error { panic("bad index") })
		require.Error(t, err)

		var panicErr *PanicError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, "unit-3", panicErr.Unit)
		assert.Equal(t, "bad index", panicErr.Value)
		assert.NotEmpty(t, panicErr.Stack)
	})
}
