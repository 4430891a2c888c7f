//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package obliv

import (
	"bytes"
	mrand "math/rand"
	"testing"

	"github.com/markkurossi/obliv/circuit"
	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/gmw"
	"github.com/markkurossi/obliv/share"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const numParties = 3

func run(t *testing.T, prog func(e *gmw.Engine) ([]*share.Value, error)) [][]uint64 {
	logger := zerolog.Nop()
	config := &env.Config{
		Logger: &logger,
	}
	results := make([][][]uint64, numParties)
	err := gmw.Simulate(config, numParties, func(e *gmw.Engine) error {
		values, err := prog(e)
		if err != nil {
			return err
		}
		if err := e.Run(); err != nil {
			return err
		}
		for _, v := range values {
			r, err := e.Reveal(v)
			if err != nil {
				return err
			}
			results[e.ID()] = append(results[e.ID()], r)
		}
		return nil
	})
	require.NoError(t, err)
	for id := 1; id < numParties; id++ {
		require.Equal(t, results[0], results[id])
	}
	return results[0]
}

// inputs inputs values as scalar values owned by owner.
func inputs(b share.Backend, owner, width int, repr share.Repr,
	values ...uint64) ([]*share.Value, error) {

	var result []*share.Value
	for _, v := range values {
		if b.ID() != owner {
			v = 0
		}
		val, err := b.Input(owner, width, repr, []uint64{v})
		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}

func scalars(values [][]uint64) []uint64 {
	var result []uint64
	for _, v := range values {
		result = append(result, v[0])
	}
	return result
}

func TestSelect(t *testing.T) {
	for _, repr := range []share.Repr{share.Arithmetic, share.Boolean} {
		result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
			bit, err := e.Input(0, 1, share.Boolean, []uint64{0, 1})
			if err != nil {
				return nil, err
			}
			x, err := e.Input(1, 16, repr, []uint64{11, 12})
			if err != nil {
				return nil, err
			}
			y, err := e.Input(2, 16, repr, []uint64{21, 22})
			if err != nil {
				return nil, err
			}
			r, err := Select(e, bit, x, y)
			if err != nil {
				return nil, err
			}
			if r.Repr() != share.Arithmetic {
				return nil, share.ErrRepresentation
			}
			return []*share.Value{r}, nil
		})
		require.Equal(t, []uint64{21, 12}, result[0], "%v", repr)
	}
}

func TestMaskExpand(t *testing.T) {
	const trials = 1000
	rnd := mrand.New(mrand.NewSource(42))
	bits := make([]uint64, trials)
	for i := range bits {
		bits[i] = uint64(rnd.Intn(2))
	}
	widths := []int{1, 8, 32, 64}

	result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
		bit, err := e.Input(1, 1, share.Boolean, bits)
		if err != nil {
			return nil, err
		}
		var result []*share.Value
		for _, width := range widths {
			mask, err := MaskExpand(e, bit, width)
			if err != nil {
				return nil, err
			}
			ind, err := Indicator(e, bit, width)
			if err != nil {
				return nil, err
			}
			result = append(result, mask, ind)
		}
		return result, nil
	})
	for idx, width := range widths {
		mask := result[idx*2]
		ind := result[idx*2+1]
		for i, bit := range bits {
			require.Equal(t, bit*share.Mask(width), mask[i])
			require.Equal(t, bit, ind[i])
		}
	}
}

func TestSum(t *testing.T) {
	var perms [][]uint64
	var permute func(prefix, rest []uint64)
	permute = func(prefix, rest []uint64) {
		if len(rest) == 0 {
			perms = append(perms, prefix)
			return
		}
		for i := range rest {
			var next []uint64
			next = append(next, rest[:i]...)
			next = append(next, rest[i+1:]...)
			permute(append(append([]uint64(nil), prefix...), rest[i]), next)
		}
	}
	permute(nil, []uint64{3, 5, 2, 7})
	require.Len(t, perms, 24)

	result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
		var result []*share.Value
		for idx, perm := range perms {
			values, err := inputs(e, idx%numParties, 32, share.Arithmetic,
				perm...)
			if err != nil {
				return nil, err
			}
			sum, err := Sum(e, values)
			if err != nil {
				return nil, err
			}
			result = append(result, sum)
		}
		return result, nil
	})
	for _, r := range result {
		require.Equal(t, []uint64{17}, r)
	}
}

func TestMinMax(t *testing.T) {
	values := []uint64{5, 9, 2, 9, 2, 7}
	for _, repr := range []share.Repr{share.Arithmetic, share.Boolean} {
		result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
			a, err := inputs(e, 0, 8, repr, values[:3]...)
			if err != nil {
				return nil, err
			}
			b, err := inputs(e, 2, 8, repr, values[3:]...)
			if err != nil {
				return nil, err
			}
			all := append(a, b...)
			lo, err := Min(e, all)
			if err != nil {
				return nil, err
			}
			hi, err := Max(e, all)
			if err != nil {
				return nil, err
			}
			return []*share.Value{lo, hi}, nil
		})
		require.Equal(t, []uint64{2, 9}, scalars(result), "%v", repr)
	}
}

func TestMinMaxBatch(t *testing.T) {
	const batch = 20
	rnd := mrand.New(mrand.NewSource(7))
	data := make([][]uint64, 4)
	for i := range data {
		data[i] = make([]uint64, batch)
		for j := range data[i] {
			data[i][j] = uint64(rnd.Intn(1 << 12))
		}
	}
	result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
		var values []*share.Value
		for i, d := range data {
			owner := i % numParties
			if e.ID() != owner {
				d = make([]uint64, batch)
			}
			v, err := e.Input(owner, 12, share.Arithmetic, d)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		lo, err := Min(e, values)
		if err != nil {
			return nil, err
		}
		hi, err := Max(e, values)
		if err != nil {
			return nil, err
		}
		return []*share.Value{lo, hi}, nil
	})
	for j := 0; j < batch; j++ {
		lo, hi := data[0][j], data[0][j]
		for _, d := range data[1:] {
			lo = min(lo, d[j])
			hi = max(hi, d[j])
		}
		require.Equal(t, lo, result[0][j])
		require.Equal(t, hi, result[1][j])
	}
}

func TestFullWidth(t *testing.T) {
	const maxValue = ^uint64(0)
	values := []uint64{1 << 63, maxValue, 0, maxValue - 1}

	result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
		v, err := inputs(e, 0, 64, share.Arithmetic, values...)
		if err != nil {
			return nil, err
		}
		lo, err := Min(e, v)
		if err != nil {
			return nil, err
		}
		hi, err := Max(e, v)
		if err != nil {
			return nil, err
		}
		bits, err := inputs(e, 1, 1, share.Boolean, 1, 0)
		if err != nil {
			return nil, err
		}
		s1, err := Select(e, bits[0], v[1], v[2])
		if err != nil {
			return nil, err
		}
		s0, err := Select(e, bits[1], v[1], v[2])
		if err != nil {
			return nil, err
		}
		return []*share.Value{lo, hi, s1, s0}, nil
	})
	require.Equal(t, []uint64{0, maxValue, maxValue, 0}, scalars(result))
}

func TestSingleton(t *testing.T) {
	result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
		values, err := inputs(e, 1, 32, share.Arithmetic, 9)
		if err != nil {
			return nil, err
		}
		lo, err := Min(e, values)
		if err != nil {
			return nil, err
		}
		hi, err := Max(e, values)
		if err != nil {
			return nil, err
		}
		if e.Stats().Comparisons != 0 {
			return nil, share.ErrBackend
		}
		return []*share.Value{lo, hi}, nil
	})
	require.Equal(t, []uint64{9, 9}, scalars(result))
}

func TestPreconditions(t *testing.T) {
	_, err := Sum(nil, nil)
	require.ErrorIs(t, err, share.ErrArgument)
	_, err = Min(nil, nil)
	require.ErrorIs(t, err, share.ErrArgument)
	_, err = Max(nil, []*share.Value{})
	require.ErrorIs(t, err, share.ErrArgument)

	arith := share.NewValue(0, 1, share.Arithmetic, 1)
	wide := share.NewValue(1, 2, share.Boolean, 1)
	x := share.NewValue(2, 8, share.Arithmetic, 1)
	y := share.NewValue(3, 8, share.Boolean, 1)

	_, err = Sum(nil, []*share.Value{x, y})
	require.ErrorIs(t, err, share.ErrRepresentation)
	_, err = Select(nil, arith, x, x)
	require.ErrorIs(t, err, share.ErrRepresentation)
	_, err = Select(nil, wide, x, x)
	require.ErrorIs(t, err, share.ErrArgument)
	_, err = MaskExpand(nil, arith, 8)
	require.ErrorIs(t, err, share.ErrRepresentation)
	_, err = MaskExpand(nil, share.NewValue(4, 1, share.Boolean, 1), 65)
	require.ErrorIs(t, err, share.ErrArgument)

	_, err = EquiJoin(nil, []*share.Value{x, x}, nil, []*share.Value{x})
	require.ErrorIs(t, err, share.ErrArgument)

	_, err = NewOrders([]*share.Value{x}, nil)
	require.ErrorIs(t, err, share.ErrArgument)
	orders, err := NewOrders([]*share.Value{x}, []*share.Value{x})
	require.NoError(t, err)
	_, err = ClearingPrice(nil, orders, orders, Grid{Step: 1})
	require.ErrorIs(t, err, share.ErrArgument)
	_, err = ClearingPrice(nil, nil, nil, Grid{Step: 1, Size: 1})
	require.ErrorIs(t, err, share.ErrArgument)
	_, err = ClearingPrice(nil, orders, nil, Grid{Low: 250, Step: 1, Size: 10})
	require.ErrorIs(t, err, share.ErrArgument)
}

func TestEquiJoin(t *testing.T) {
	result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
		left, err := inputs(e, 0, 32, share.Arithmetic, 5, 2, 9)
		if err != nil {
			return nil, err
		}
		right, err := inputs(e, 1, 32, share.Arithmetic, 9, 2, 2)
		if err != nil {
			return nil, err
		}
		matches, err := Matches(e, left, right)
		if err != nil {
			return nil, err
		}
		joined, err := EquiJoin(e, left, right, nil)
		if err != nil {
			return nil, err
		}
		payload, err := inputs(e, 2, 16, share.Boolean, 100, 200, 300)
		if err != nil {
			return nil, err
		}
		paid, err := EquiJoin(e, left, right, payload)
		if err != nil {
			return nil, err
		}
		empty, err := EquiJoin(e, left, nil, nil)
		if err != nil {
			return nil, err
		}
		result := append(matches, joined...)
		result = append(result, paid...)
		return append(result, empty...), nil
	})
	require.Equal(t, []uint64{
		0, 1, 1,
		0, 2, 9,
		0, 200, 300,
		0, 0, 0,
	}, scalars(result))
}

type order struct {
	price    uint64
	quantity uint64
}

// expectedClearing computes the clearing price and minimum imbalance in
// cleartext.
func expectedClearing(offers, bids []order, grid Grid) (uint64, uint64) {
	var minImbalance, price uint64
	for k := 0; k < grid.Size; k++ {
		p := grid.Price(k)
		var offer, bid uint64
		for _, o := range offers {
			if o.price <= p {
				offer += o.quantity
			}
		}
		for _, b := range bids {
			if b.price >= p {
				bid += b.quantity
			}
		}
		imbalance := bid - offer
		if offer > bid {
			imbalance = offer - bid
		}
		if k == 0 || minImbalance > imbalance {
			minImbalance = imbalance
			price = p
		}
	}
	return price, minImbalance
}

func inputOrders(e *gmw.Engine, owner int, orders []order) ([]Order, error) {
	var prices, quantities []uint64
	for _, o := range orders {
		prices = append(prices, o.price)
		quantities = append(quantities, o.quantity)
	}
	p, err := inputs(e, owner, 16, share.Boolean, prices...)
	if err != nil {
		return nil, err
	}
	q, err := inputs(e, owner, 32, share.Arithmetic, quantities...)
	if err != nil {
		return nil, err
	}
	return NewOrders(p, q)
}

func testAuction(t *testing.T, offers, bids []order, grid Grid) (
	uint64, uint64) {

	result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
		o, err := inputOrders(e, 0, offers)
		if err != nil {
			return nil, err
		}
		b, err := inputOrders(e, 1, bids)
		if err != nil {
			return nil, err
		}
		state, err := ClearingPrice(e, o, b, grid)
		if err != nil {
			return nil, err
		}
		return []*share.Value{state.ClearingPrice, state.MinImbalance}, nil
	})
	price, imbalance := expectedClearing(offers, bids, grid)
	require.Equal(t, []uint64{price, imbalance}, scalars(result))
	return price, imbalance
}

func TestAuction(t *testing.T) {
	price, imbalance := testAuction(t,
		[]order{{3, 10}, {7, 4}},
		[]order{{8, 6}, {4, 9}},
		Grid{Low: 0, Step: 1, Size: 11})
	require.Equal(t, uint64(5), price)
	require.Equal(t, uint64(4), imbalance)
}

func TestAuctionOneSided(t *testing.T) {
	grid := Grid{Low: 0, Step: 1, Size: 11}

	price, imbalance := testAuction(t,
		[]order{{3, 10}, {7, 4}}, nil, grid)
	require.Equal(t, uint64(0), price)
	require.Equal(t, uint64(0), imbalance)

	price, imbalance = testAuction(t,
		nil, []order{{8, 6}, {4, 9}}, grid)
	require.Equal(t, uint64(9), price)
	require.Equal(t, uint64(0), imbalance)
}

func TestAuctionRandom(t *testing.T) {
	rnd := mrand.New(mrand.NewSource(3))
	random := func(n int) []order {
		var result []order
		for i := 0; i < n; i++ {
			result = append(result, order{
				price:    uint64(rnd.Intn(16)),
				quantity: uint64(rnd.Intn(20)),
			})
		}
		return result
	}
	for i := 0; i < 3; i++ {
		testAuction(t, random(3), random(2), Grid{Low: 2, Step: 2, Size: 7})
	}
}

func TestStats(t *testing.T) {
	div, err := circuit.NewDivider(32)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, div.MarshalBristol(&buf))
	loaded, err := circuit.ParseBristol(&buf)
	require.NoError(t, err)

	for _, divider := range []*circuit.Circuit{nil, loaded} {
		result := run(t, func(e *gmw.Engine) ([]*share.Value, error) {
			d0, err := inputs(e, 0, 32, share.Arithmetic, 10, 20, 30)
			if err != nil {
				return nil, err
			}
			d1, err := inputs(e, 1, 32, share.Arithmetic, 5, 7)
			if err != nil {
				return nil, err
			}
			d2, err := inputs(e, 2, 32, share.Arithmetic, 100)
			if err != nil {
				return nil, err
			}
			stats, err := Stats(e, divider, d0, d1, d2)
			if err != nil {
				return nil, err
			}
			if stats.Count != 6 {
				return nil, share.ErrArgument
			}
			return []*share.Value{
				stats.Sum, stats.Min, stats.Max, stats.Mean,
			}, nil
		})
		require.Equal(t, []uint64{172, 5, 100, 28}, scalars(result))
	}
}
