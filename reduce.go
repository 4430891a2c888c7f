//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package obliv

import (
	"github.com/markkurossi/obliv/share"
	"golang.org/x/xerrors"
)

// Sum returns the arithmetic sum of the values modulo 2^width.
func Sum(b share.Backend, values []*share.Value) (*share.Value, error) {
	if len(values) == 0 {
		return nil, xerrors.Errorf("sum: no values: %w", share.ErrArgument)
	}
	if err := share.Check("sum", share.Arithmetic, values...); err != nil {
		return nil, err
	}
	acc := values[0]
	for _, v := range values[1:] {
		var err error
		acc, err = b.Add(acc, v)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Max returns the maximum of the values as an arithmetic value. The
// values can be in either representation but they must have equal
// width and batch. On ties the later value is selected.
func Max(b share.Backend, values []*share.Value) (*share.Value, error) {
	return reduce(b, "max", values, func(acc, e *share.Value) (
		*share.Value, error) {
		return b.GreaterThan(e, acc)
	})
}

// Min returns the minimum of the values as an arithmetic value. The
// values can be in either representation but they must have equal
// width and batch. On ties the later value is selected.
func Min(b share.Backend, values []*share.Value) (*share.Value, error) {
	return reduce(b, "min", values, func(acc, e *share.Value) (
		*share.Value, error) {
		return b.GreaterThan(acc, e)
	})
}

// reduce folds the values with Select. The next element replaces the
// accumulator if better(acc, e) is 1 or the values are equal.
func reduce(b share.Backend, op string, values []*share.Value,
	better func(acc, e *share.Value) (*share.Value, error)) (
	*share.Value, error) {

	if len(values) == 0 {
		return nil, xerrors.Errorf("%s: no values: %w", op, share.ErrArgument)
	}
	for idx, v := range values {
		if v == nil {
			return nil, xerrors.Errorf("%s: nil value %d: %w", op, idx,
				share.ErrArgument)
		}
		if v.Width() != values[0].Width() || v.Batch() != values[0].Batch() {
			return nil, xerrors.Errorf("%s: value %d: shape %dx%d != %dx%d: %w",
				op, idx, v.Width(), v.Batch(),
				values[0].Width(), values[0].Batch(), share.ErrArgument)
		}
	}

	acc, err := arithmetic(b, values[0])
	if err != nil || len(values) == 1 {
		return acc, err
	}
	accBool, err := boolean(b, values[0])
	if err != nil {
		return nil, err
	}
	for idx, e := range values[1:] {
		eBool, err := boolean(b, e)
		if err != nil {
			return nil, err
		}
		gt, err := better(accBool, eBool)
		if err != nil {
			return nil, err
		}
		eq, err := b.Equal(accBool, eBool)
		if err != nil {
			return nil, err
		}
		keep, err := b.BoolOr(gt, eq)
		if err != nil {
			return nil, err
		}
		acc, err = Select(b, keep, e, acc)
		if err != nil {
			return nil, err
		}
		if idx+2 < len(values) {
			accBool, err = boolean(b, acc)
			if err != nil {
				return nil, err
			}
		}
	}
	return acc, nil
}
