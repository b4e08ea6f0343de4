package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotNil(t *testing.T) {
	var nilPtr *int
	var nilSlice []int
	one := 1

	require.Panics(t, func() { NotNil(nil) })
	require.Panics(t, func() { NotNil(nilPtr) })
	require.Panics(t, func() { NotNil(nilSlice) })
	require.NotPanics(t, func() { NotNil(&one) })
	require.NotPanics(t, func() { NotNil(struct{}{}) })
	require.NotPanics(t, func() { NotNil(0) })
}

func TestNotEmptyStr(t *testing.T) {
	require.Panics(t, func() { NotEmptyStr("") })
	require.NotPanics(t, func() { NotEmptyStr("x") })
}

func TestNonNegative(t *testing.T) {
	require.Panics(t, func() { NonNegative(-1) })
	require.NotPanics(t, func() { NonNegative(0) })
	require.NotPanics(t, func() { NonNegative(2.5) })
}
