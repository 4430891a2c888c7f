//
// Copyright (c) 2022-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testWidth = 4

func exhaustive(t *testing.T, c *Circuit,
	f func(x, y uint64) []uint64) {

	mask := uint64(1)<<testWidth - 1
	for x := uint64(0); x <= mask; x++ {
		for y := uint64(0); y <= mask; y++ {
			out, err := c.Compute([]uint64{x, y})
			require.NoError(t, err)
			require.Equal(t, f(x, y), out, "x=%d, y=%d", x, y)
		}
	}
}

func TestAdder(t *testing.T) {
	c, err := NewMultiAdder(2, testWidth)
	require.NoError(t, err)
	exhaustive(t, c, func(x, y uint64) []uint64 {
		return []uint64{(x + y) & 0xf}
	})
}

func TestMultiAdder(t *testing.T) {
	c, err := NewMultiAdder(3, 16)
	require.NoError(t, err)
	require.Len(t, c.Inputs, 3)

	out, err := c.Compute([]uint64{0xffff, 2, 0x1234})
	require.NoError(t, err)
	require.Equal(t, []uint64{(0xffff + 2 + 0x1234) & 0xffff}, out)
}

func TestGreaterThan(t *testing.T) {
	c, err := NewGreaterThan(testWidth)
	require.NoError(t, err)
	exhaustive(t, c, func(x, y uint64) []uint64 {
		if x > y {
			return []uint64{1}
		}
		return []uint64{0}
	})
}

func TestEqual(t *testing.T) {
	for _, width := range []int{1, testWidth} {
		c, err := NewEqual(width)
		require.NoError(t, err)
		mask := uint64(1)<<width - 1
		for x := uint64(0); x <= mask; x++ {
			for y := uint64(0); y <= mask; y++ {
				out, err := c.Compute([]uint64{x, y})
				require.NoError(t, err)
				var expected uint64
				if x == y {
					expected = 1
				}
				require.Equal(t, []uint64{expected}, out)
			}
		}
	}
}

func TestDivider(t *testing.T) {
	c, err := NewDivider(testWidth)
	require.NoError(t, err)
	require.Equal(t, Wire(c.NumWires-2*testWidth), c.OutputWire(0))
	require.Equal(t, Wire(c.NumWires-testWidth), c.OutputWire(1))

	mask := uint64(1)<<testWidth - 1
	for x := uint64(0); x <= mask; x++ {
		for d := uint64(0); d <= mask; d++ {
			out, err := c.Compute([]uint64{x, d})
			require.NoError(t, err)
			if d == 0 {
				require.Equal(t, mask, out[0], "x=%d", x)
				continue
			}
			require.Equal(t, []uint64{x / d, x % d}, out, "x=%d, d=%d", x, d)
		}
	}
}

func TestLevels(t *testing.T) {
	c, err := NewGreaterThan(8)
	require.NoError(t, err)

	levels := c.Levels()
	require.Len(t, levels, 9)

	var interactive, free int
	for depth, level := range levels {
		if depth == 0 {
			require.Empty(t, level.Interactive)
		}
		interactive += len(level.Interactive)
		free += len(level.Free)
	}
	require.Equal(t, c.NumInteractive(), interactive)
	require.Equal(t, c.NumGates, interactive+free)
}

func TestBuilderCopiesInputOutputs(t *testing.T) {
	b := NewBuilder()
	x := b.Input("x", 2)
	b.Output("a", x)
	b.Output("b", x)
	c, err := b.Compile()
	require.NoError(t, err)

	out, err := c.Compute([]uint64{2})
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 2}, out)
}
