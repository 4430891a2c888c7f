//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package obliv implements oblivious algorithms over secret-shared
// values. The operation sequence of every algorithm depends only on
// the public shape of its arguments: value widths, batch sizes and
// the number of values. The algorithms never reveal or branch on
// secret data; they only add operations to the backend's computation
// graph.
package obliv

import (
	"github.com/markkurossi/obliv/share"
	"golang.org/x/xerrors"
)

// MaskExpand expands the Boolean 1-bit value bit into an arithmetic
// mask of width bits. The mask is 0 if bit is 0 and 2^width-1
// otherwise.
func MaskExpand(b share.Backend, bit *share.Value, width int) (
	*share.Value, error) {

	if err := checkBit("mask", bit); err != nil {
		return nil, err
	}
	if err := share.CheckShape(width, bit.Batch()); err != nil {
		return nil, xerrors.Errorf("mask: %w", err)
	}
	bits := make([]*share.Value, width)
	for i := range bits {
		bits[i] = bit
	}
	mask, err := b.Concatenate(bits)
	if err != nil {
		return nil, err
	}
	return b.Convert(mask, share.Arithmetic)
}

// Indicator converts the Boolean 1-bit value bit into an arithmetic
// value of width bits that is 0 or 1. The all-ones mask is -1 modulo
// 2^width so the indicator is the negated mask.
func Indicator(b share.Backend, bit *share.Value, width int) (
	*share.Value, error) {

	mask, err := MaskExpand(b, bit, width)
	if err != nil {
		return nil, err
	}
	return b.Neg(mask)
}

// Select returns x if bit is 1 and y otherwise. Boolean payloads are
// converted to arithmetic representation and the result is always
// arithmetic.
func Select(b share.Backend, bit, x, y *share.Value) (*share.Value, error) {
	if err := checkBit("select", bit); err != nil {
		return nil, err
	}
	x, err := arithmetic(b, x)
	if err != nil {
		return nil, err
	}
	y, err = arithmetic(b, y)
	if err != nil {
		return nil, err
	}
	if err := share.Check("select", share.Arithmetic, x, y); err != nil {
		return nil, err
	}
	if bit.Batch() != x.Batch() {
		return nil, xerrors.Errorf("select: batch mismatch: %d != %d: %w",
			bit.Batch(), x.Batch(), share.ErrArgument)
	}

	ind, err := Indicator(b, bit, x.Width())
	if err != nil {
		return nil, err
	}
	one, err := b.Constant(x.Width(), share.Arithmetic,
		constant(1, x.Batch()))
	if err != nil {
		return nil, err
	}
	notInd, err := b.Sub(one, ind)
	if err != nil {
		return nil, err
	}
	tx, err := b.Mul(ind, x)
	if err != nil {
		return nil, err
	}
	ty, err := b.Mul(notInd, y)
	if err != nil {
		return nil, err
	}
	return b.Add(tx, ty)
}

func checkBit(op string, bit *share.Value) error {
	if err := share.Check(op, share.Boolean, bit); err != nil {
		return err
	}
	if bit.Width() != 1 {
		return xerrors.Errorf("%s: predicate width %d: %w", op, bit.Width(),
			share.ErrArgument)
	}
	return nil
}

func arithmetic(b share.Backend, v *share.Value) (*share.Value, error) {
	if v == nil {
		return nil, xerrors.Errorf("nil argument: %w", share.ErrArgument)
	}
	return b.Convert(v, share.Arithmetic)
}

func boolean(b share.Backend, v *share.Value) (*share.Value, error) {
	if v == nil {
		return nil, xerrors.Errorf("nil argument: %w", share.ErrArgument)
	}
	return b.Convert(v, share.Boolean)
}

func constant(v uint64, batch int) []uint64 {
	result := make([]uint64, batch)
	for i := range result {
		result[i] = v
	}
	return result
}
