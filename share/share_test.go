//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package share

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProtocol(t *testing.T) {
	p, err := ParseProtocol("GMW")
	require.NoError(t, err)
	require.Equal(t, GMW, p)

	for _, name := range []string{"bmr", "yao", "spdz", ""} {
		_, err := ParseProtocol(name)
		require.ErrorIs(t, err, ErrConfiguration, name)
	}
}

func TestMask(t *testing.T) {
	require.Equal(t, uint64(1), Mask(1))
	require.Equal(t, uint64(0xffffffff), Mask(32))
	require.Equal(t, ^uint64(0), Mask(64))
}

func TestCheck(t *testing.T) {
	a := NewValue(0, 32, Arithmetic, 2)
	b := NewValue(1, 32, Arithmetic, 2)
	require.NoError(t, Check("add", Arithmetic, a, b))

	c := NewValue(2, 32, Boolean, 2)
	require.ErrorIs(t, Check("add", Arithmetic, a, c), ErrRepresentation)

	d := NewValue(3, 16, Arithmetic, 2)
	require.ErrorIs(t, Check("add", Arithmetic, a, d), ErrArgument)

	e := NewValue(4, 32, Arithmetic, 1)
	require.ErrorIs(t, Check("add", Arithmetic, a, e), ErrArgument)

	require.ErrorIs(t, Check("add", Arithmetic, a, nil), ErrArgument)

	require.ErrorIs(t, CheckShape(0, 1), ErrArgument)
	require.ErrorIs(t, CheckShape(65, 1), ErrArgument)
	require.ErrorIs(t, CheckShape(8, 0), ErrArgument)
	require.NoError(t, CheckShape(64, 1))
}
