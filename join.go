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

// Matches returns a Boolean 1-bit value for each left key. The value
// is 1 if the key is equal to any of the right keys. All left and
// right keys are compared pairwise.
func Matches(b share.Backend, left, right []*share.Value) (
	[]*share.Value, error) {

	if err := checkKeys("matches", left, right); err != nil {
		return nil, err
	}

	var rightBool []*share.Value
	for _, r := range right {
		v, err := boolean(b, r)
		if err != nil {
			return nil, err
		}
		rightBool = append(rightBool, v)
	}

	result := make([]*share.Value, len(left))
	for i, l := range left {
		lBool, err := boolean(b, l)
		if err != nil {
			return nil, err
		}
		if len(rightBool) == 0 {
			result[i], err = b.Constant(1, share.Boolean,
				constant(0, l.Batch()))
			if err != nil {
				return nil, err
			}
			continue
		}
		var match *share.Value
		for _, r := range rightBool {
			eq, err := b.Equal(lBool, r)
			if err != nil {
				return nil, err
			}
			if match == nil {
				match = eq
			} else {
				match, err = b.BoolOr(match, eq)
				if err != nil {
					return nil, err
				}
			}
		}
		result[i] = match
	}
	return result, nil
}

// EquiJoin returns the payload of each left key that matches a right
// key, and zero for the left keys that do not match. If payload is
// nil, the left keys are used as the payload. The results are
// arithmetic.
func EquiJoin(b share.Backend, left, right, payload []*share.Value) (
	[]*share.Value, error) {

	if payload == nil {
		payload = left
	}
	if len(payload) != len(left) {
		return nil, xerrors.Errorf("equijoin: %d payloads for %d keys: %w",
			len(payload), len(left), share.ErrArgument)
	}
	for idx, p := range payload {
		if p == nil {
			return nil, xerrors.Errorf("equijoin: nil payload %d: %w", idx,
				share.ErrArgument)
		}
		if p.Batch() != left[idx].Batch() {
			return nil, xerrors.Errorf("equijoin: payload %d: batch mismatch: %w",
				idx, share.ErrArgument)
		}
	}
	matches, err := Matches(b, left, right)
	if err != nil {
		return nil, err
	}

	result := make([]*share.Value, len(left))
	for i, match := range matches {
		p, err := arithmetic(b, payload[i])
		if err != nil {
			return nil, err
		}
		ind, err := Indicator(b, match, p.Width())
		if err != nil {
			return nil, err
		}
		result[i], err = b.Mul(ind, p)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func checkKeys(op string, left, right []*share.Value) error {
	var first *share.Value
	for _, keys := range [][]*share.Value{left, right} {
		for idx, k := range keys {
			if k == nil {
				return xerrors.Errorf("%s: nil key %d: %w", op, idx,
					share.ErrArgument)
			}
			if first == nil {
				first = k
				continue
			}
			if k.Width() != first.Width() || k.Batch() != first.Batch() {
				return xerrors.Errorf("%s: key %d: shape %dx%d != %dx%d: %w",
					op, idx, k.Width(), k.Batch(),
					first.Width(), first.Batch(), share.ErrArgument)
			}
		}
	}
	return nil
}
