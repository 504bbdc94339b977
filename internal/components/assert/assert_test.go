package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositive(t *testing.T) {
	require.NotPanics(t, func() { Positive("workers", 1) })
	require.NotPanics(t, func() { Positive("ratio", 0.5) })
	require.PanicsWithValue(t, "expected workers to be positive, got 0", func() { Positive("workers", 0) })
	require.PanicsWithValue(t, "expected delay to be positive, got -3", func() { Positive("delay", int64(-3)) })
}

func TestNotEmptyStr(t *testing.T) {
	require.NotPanics(t, func() { NotEmptyStr("x") })
	require.Panics(t, func() { NotEmptyStr("") })
}
