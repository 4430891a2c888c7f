//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/gmw"
	"github.com/markkurossi/obliv/share"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	values, err := Read(strings.NewReader("1 2\n\t3\n4294967295\n"))
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3, 4294967295}, values)

	values, err = Read(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, values)

	for _, data := range []string{"1 -2", "4294967296", "1 x 3", "1.5"} {
		_, err = Read(strings.NewReader(data))
		require.ErrorIs(t, err, ErrFile, data)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("5 2 9\n"), 0644))

	values, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []uint32{5, 2, 9}, values)

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, ErrFile)
}

func TestPairs(t *testing.T) {
	prices, quantities, err := Pairs([]uint32{3, 10, 7, 4})
	require.NoError(t, err)
	require.Equal(t, []uint32{3, 7}, prices)
	require.Equal(t, []uint32{10, 4}, quantities)

	_, _, err = Pairs([]uint32{1, 2, 3})
	require.ErrorIs(t, err, ErrFile)
}

func TestInput(t *testing.T) {
	logger := zerolog.Nop()
	config := &env.Config{
		Logger: &logger,
	}
	data := []uint32{5, 2, 9}
	results := make([][]uint64, 2)

	err := gmw.Simulate(config, 2, func(e *gmw.Engine) error {
		var values []uint32
		if e.ID() == 1 {
			values = data
		}
		inputs, err := Input(e, 1, 8, len(data), share.Arithmetic, values)
		if err != nil {
			return err
		}
		if err := e.Run(); err != nil {
			return err
		}
		for _, v := range inputs {
			r, err := e.Reveal(v)
			if err != nil {
				return err
			}
			results[e.ID()] = append(results[e.ID()], r...)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{5, 2, 9}, results[0])
	require.Equal(t, results[0], results[1])

	err = gmw.Simulate(config, 2, func(e *gmw.Engine) error {
		_, err := Input(e, e.ID(), 4, 1, share.Arithmetic, []uint32{16})
		return err
	})
	require.ErrorIs(t, err, share.ErrArgument)
}
