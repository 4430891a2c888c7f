//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package share

import (
	"golang.org/x/xerrors"
)

// CheckShape verifies that the width and batch are valid value
// dimensions.
func CheckShape(width, batch int) error {
	if width < 1 || width > MaxWidth {
		return xerrors.Errorf("invalid width %d: %w", width, ErrArgument)
	}
	if batch < 1 {
		return xerrors.Errorf("invalid batch %d: %w", batch, ErrArgument)
	}
	return nil
}

// Check verifies that all values have the representation repr and
// the same width and batch.
func Check(op string, repr Repr, values ...*Value) error {
	for idx, v := range values {
		if v == nil {
			return xerrors.Errorf("%s: nil argument %d: %w", op, idx,
				ErrArgument)
		}
		if v.repr != repr {
			return xerrors.Errorf("%s: %s operand, expected %s: %w",
				op, v.repr, repr, ErrRepresentation)
		}
		if idx == 0 {
			continue
		}
		if v.width != values[0].width {
			return xerrors.Errorf("%s: width mismatch: %d != %d: %w",
				op, v.width, values[0].width, ErrArgument)
		}
		if v.batch != values[0].batch {
			return xerrors.Errorf("%s: batch mismatch: %d != %d: %w",
				op, v.batch, values[0].batch, ErrArgument)
		}
	}
	return nil
}
