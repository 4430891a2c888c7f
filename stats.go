//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package obliv

import (
	"github.com/markkurossi/obliv/circuit"
	"github.com/markkurossi/obliv/share"
	"golang.org/x/xerrors"
)

// Statistics holds the aggregate statistics of the datasets. Sum, Min
// and Max are arithmetic and Mean is boolean.
type Statistics struct {
	Count int
	Sum   *share.Value
	Min   *share.Value
	Max   *share.Value
	Mean  *share.Value
}

// Stats computes the aggregate statistics over the concatenation of
// the datasets. The values must be arithmetic. The mean is computed
// by evaluating the divider circuit with the boolean sum and the
// public count. If divider is nil, a restoring divider of the value
// width is used.
func Stats(b share.Backend, divider *circuit.Circuit,
	datasets ...[]*share.Value) (*Statistics, error) {

	var values []*share.Value
	for _, ds := range datasets {
		values = append(values, ds...)
	}
	sum, err := Sum(b, values)
	if err != nil {
		return nil, xerrors.Errorf("stats: %w", err)
	}
	width := sum.Width()
	count := uint64(len(values))
	if count&share.Mask(width) != count {
		return nil, xerrors.Errorf("stats: count %d exceeds width %d: %w",
			count, width, share.ErrArgument)
	}

	lo, err := Min(b, values)
	if err != nil {
		return nil, err
	}
	hi, err := Max(b, values)
	if err != nil {
		return nil, err
	}

	if divider == nil {
		divider, err = circuit.NewDivider(width)
		if err != nil {
			return nil, err
		}
	}
	sumBool, err := b.Convert(sum, share.Boolean)
	if err != nil {
		return nil, err
	}
	n, err := b.Constant(width, share.Boolean, constant(count, sum.Batch()))
	if err != nil {
		return nil, err
	}
	quotient, err := b.Evaluate(divider, sumBool, n)
	if err != nil {
		return nil, xerrors.Errorf("stats: mean: %w", err)
	}

	return &Statistics{
		Count: len(values),
		Sum:   sum,
		Min:   lo,
		Max:   hi,
		Mean:  quotient[0],
	}, nil
}
