//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"io"

	"github.com/markkurossi/obliv"
	"github.com/markkurossi/obliv/circuit"
	"github.com/markkurossi/obliv/dataset"
	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/gmw"
	"github.com/markkurossi/obliv/share"
	"github.com/markkurossi/tabulate"
	"golang.org/x/xerrors"
)

// Application runs one application in a party. The input holds the
// party's dataset.
type Application func(e *gmw.Engine, config *env.Config, input []uint32,
	opts Options) (*Result, error)

// Options define application specific options.
type Options struct {
	Divider string
}

var applications = map[string]Application{
	"stats":   statsApp,
	"psi":     psiApp,
	"auction": auctionApp,
}

// Result holds the revealed application results.
type Result struct {
	Title string
	Rows  [][2]string
}

// Add adds a result row.
func (r *Result) Add(label string, value interface{}) {
	r.Rows = append(r.Rows, [2]string{label, fmt.Sprintf("%v", value)})
}

// Print prints the result as a table.
func (r *Result) Print(w io.Writer) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header(r.Title).SetAlign(tabulate.ML)
	tab.Header("Value").SetAlign(tabulate.MR)
	for _, row := range r.Rows {
		tr := tab.Row()
		tr.Column(row[0])
		tr.Column(row[1])
	}
	tab.Print(w)
}

// reveal evaluates the computation and reveals the values.
func reveal(e *gmw.Engine, values ...*share.Value) ([][]uint64, error) {
	if err := e.Run(); err != nil {
		return nil, err
	}
	var result [][]uint64
	for _, v := range values {
		r, err := e.Reveal(v)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func input(e *gmw.Engine, config *env.Config, owner int, repr share.Repr,
	values []uint32) ([]*share.Value, error) {

	if owner >= len(config.Datasets) {
		return nil, xerrors.Errorf("no dataset size for party %d: %w", owner,
			share.ErrConfiguration)
	}
	if e.ID() != owner {
		values = nil
	}
	return dataset.Input(e, owner, config.Width, config.Datasets[owner],
		repr, values)
}

func statsApp(e *gmw.Engine, config *env.Config, data []uint32,
	opts Options) (*Result, error) {

	var divider *circuit.Circuit
	if len(opts.Divider) > 0 {
		var err error
		divider, err = circuit.ParseFile(opts.Divider)
		if err != nil {
			return nil, err
		}
	}
	var datasets [][]*share.Value
	for owner := 0; owner < e.NumParties(); owner++ {
		ds, err := input(e, config, owner, share.Arithmetic, data)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	stats, err := obliv.Stats(e, divider, datasets...)
	if err != nil {
		return nil, err
	}
	values, err := reveal(e, stats.Sum, stats.Min, stats.Max, stats.Mean)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Title: "Statistic",
	}
	result.Add("Count", stats.Count)
	result.Add("Sum", values[0][0])
	result.Add("Min", values[1][0])
	result.Add("Max", values[2][0])
	result.Add("Mean", values[3][0])
	return result, nil
}

func psiApp(e *gmw.Engine, config *env.Config, data []uint32,
	opts Options) (*Result, error) {

	left, err := input(e, config, 0, share.Arithmetic, data)
	if err != nil {
		return nil, err
	}
	right, err := input(e, config, 1, share.Arithmetic, data)
	if err != nil {
		return nil, err
	}
	matches, err := obliv.Matches(e, left, right)
	if err != nil {
		return nil, err
	}
	joined, err := obliv.EquiJoin(e, left, right, nil)
	if err != nil {
		return nil, err
	}
	values, err := reveal(e, append(matches, joined...)...)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Title: "Key",
	}
	var count int
	for i := range left {
		if values[i][0] == 0 {
			continue
		}
		count++
		result.Add(fmt.Sprintf("%d", i), values[len(left)+i][0])
	}
	result.Add("Matches", count)
	return result, nil
}

func auctionApp(e *gmw.Engine, config *env.Config, data []uint32,
	opts Options) (*Result, error) {

	var orders [2][]obliv.Order
	for owner := range orders {
		var prices, quantities []uint32
		if e.ID() == owner {
			var err error
			prices, quantities, err = dataset.Pairs(data)
			if err != nil {
				return nil, err
			}
		}
		if owner >= len(config.Datasets) || config.Datasets[owner]%2 != 0 {
			return nil, xerrors.Errorf("party %d: invalid order dataset: %w",
				owner, share.ErrConfiguration)
		}
		size := config.Datasets[owner] / 2
		p, err := dataset.Input(e, owner, config.Width, size, share.Boolean,
			prices)
		if err != nil {
			return nil, err
		}
		q, err := dataset.Input(e, owner, config.Width, size,
			share.Arithmetic, quantities)
		if err != nil {
			return nil, err
		}
		orders[owner], err = obliv.NewOrders(p, q)
		if err != nil {
			return nil, err
		}
	}
	state, err := obliv.ClearingPrice(e, orders[0], orders[1], obliv.Grid{
		Low:  config.Grid.Low,
		Step: config.Grid.Step,
		Size: config.Grid.Size,
	})
	if err != nil {
		return nil, err
	}
	values, err := reveal(e, state.ClearingPrice, state.MinImbalance)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Title: "Auction",
	}
	result.Add("Offers", len(orders[0]))
	result.Add("Bids", len(orders[1]))
	result.Add("Clearing price", values[0][0])
	result.Add("Imbalance", values[1][0])
	return result, nil
}
