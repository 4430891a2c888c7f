//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package dataset reads party datasets and inputs them into the
// computation.
package dataset

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/markkurossi/obliv/share"
	"golang.org/x/xerrors"
)

// ErrFile is returned when a dataset file can't be read or parsed.
var ErrFile = xerrors.New("dataset file error")

// ReadFile reads whitespace-separated unsigned 32-bit integers from
// the file.
func ReadFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("%s: %v: %w", path, err, ErrFile)
	}
	defer f.Close()

	values, err := Read(f)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// Read reads whitespace-separated unsigned 32-bit integers from in.
func Read(in io.Reader) ([]uint32, error) {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	var result []uint32
	for scanner.Scan() {
		v, err := strconv.ParseUint(scanner.Text(), 10, 32)
		if err != nil {
			return nil, xerrors.Errorf("value %d: %v: %w", len(result)+1,
				err, ErrFile)
		}
		result = append(result, uint32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrFile)
	}
	return result, nil
}

// Pairs splits the values into two lists of alternating elements:
// v0 v1 v2 v3 ... becomes [v0 v2 ...] and [v1 v3 ...].
func Pairs(values []uint32) ([]uint32, []uint32, error) {
	if len(values)%2 != 0 {
		return nil, nil, xerrors.Errorf("odd number of values %d: %w",
			len(values), ErrFile)
	}
	var first, second []uint32
	for i := 0; i < len(values); i += 2 {
		first = append(first, values[i])
		second = append(second, values[i+1])
	}
	return first, second, nil
}

// Input inputs the dataset of the party owner as size scalar values.
// The owner provides the values and the other parties pass nil.
func Input(b share.Backend, owner, width, size int, repr share.Repr,
	values []uint32) ([]*share.Value, error) {

	if b.ID() == owner && len(values) != size {
		return nil, xerrors.Errorf("dataset has %d values, expected %d: %w",
			len(values), size, share.ErrArgument)
	}
	mask := share.Mask(width)

	result := make([]*share.Value, size)
	for i := range result {
		var v uint64
		if b.ID() == owner {
			v = uint64(values[i])
			if v&mask != v {
				return nil, xerrors.Errorf("value %d does not fit in %d bits: %w",
					v, width, share.ErrArgument)
			}
		}
		var err error
		result[i], err = b.Input(owner, width, repr, []uint64{v})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
