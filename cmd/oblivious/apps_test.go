//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/markkurossi/obliv/circuit"
	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/gmw"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, app Application, config *env.Config,
	inputs [][]uint32, opts Options) *Result {

	logger := zerolog.Nop()
	config.Logger = &logger
	for _, input := range inputs {
		config.Datasets = append(config.Datasets, len(input))
	}
	require.NoError(t, config.Validate())

	results := make([]*Result, len(inputs))
	err := gmw.Simulate(config, len(inputs), func(e *gmw.Engine) error {
		r, err := app(e, config, inputs[e.ID()], opts)
		results[e.ID()] = r
		return err
	})
	require.NoError(t, err)
	for _, r := range results[1:] {
		require.Equal(t, results[0], r)
	}
	return results[0]
}

func TestStatsApp(t *testing.T) {
	result := runApp(t, statsApp, &env.Config{}, [][]uint32{
		{10, 20, 30},
		{5, 7},
		{100},
	}, Options{})
	require.Equal(t, [][2]string{
		{"Count", "6"},
		{"Sum", "172"},
		{"Min", "5"},
		{"Max", "100"},
		{"Mean", "28"},
	}, result.Rows)

	var buf bytes.Buffer
	result.Print(&buf)
	require.Contains(t, buf.String(), "172")
}

func TestStatsAppDivider(t *testing.T) {
	div, err := circuit.NewDivider(16)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "div16.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, div.MarshalBristol(f))
	require.NoError(t, f.Close())

	result := runApp(t, statsApp, &env.Config{Width: 16}, [][]uint32{
		{1, 2},
		{3, 4},
	}, Options{Divider: path})
	require.Equal(t, [2]string{"Mean", "2"}, result.Rows[4])
}

func TestPSIApp(t *testing.T) {
	result := runApp(t, psiApp, &env.Config{}, [][]uint32{
		{5, 2, 9},
		{9, 2, 2},
	}, Options{})
	require.Equal(t, [][2]string{
		{"1", "2"},
		{"2", "9"},
		{"Matches", "2"},
	}, result.Rows)
}

func TestAuctionApp(t *testing.T) {
	config := &env.Config{
		Width: 16,
		Grid: env.Grid{
			Size: 11,
		},
	}
	result := runApp(t, auctionApp, config, [][]uint32{
		{3, 10, 7, 4},
		{8, 6, 4, 9},
	}, Options{})
	require.Equal(t, [][2]string{
		{"Offers", "2"},
		{"Bids", "2"},
		{"Clearing price", "5"},
		{"Imbalance", "4"},
	}, result.Rows)
}

func TestLookupApp(t *testing.T) {
	_, err := lookupApp("stats")
	require.NoError(t, err)
	_, err = lookupApp("sort")
	require.Error(t, err)
}
