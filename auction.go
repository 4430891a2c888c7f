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

// Order is a secret sealed-bid order.
type Order struct {
	Price    *share.Value
	Quantity *share.Value
}

// NewOrders pairs prices with quantities.
func NewOrders(prices, quantities []*share.Value) ([]Order, error) {
	if len(prices) != len(quantities) {
		return nil, xerrors.Errorf("orders: %d prices, %d quantities: %w",
			len(prices), len(quantities), share.ErrArgument)
	}
	result := make([]Order, len(prices))
	for i := range prices {
		result[i] = Order{
			Price:    prices[i],
			Quantity: quantities[i],
		}
	}
	return result, nil
}

// Grid defines the public price grid Low, Low+Step, ...,
// Low+(Size-1)*Step.
type Grid struct {
	Low  uint64
	Step uint64
	Size int
}

// Price returns the k:th grid price.
func (g Grid) Price(k int) uint64 {
	return g.Low + uint64(k)*g.Step
}

// ClearingState holds the minimum absolute imbalance and the price
// at which it was reached.
type ClearingState struct {
	MinImbalance  *share.Value
	ClearingPrice *share.Value
}

// ClearingPrice searches the grid for the price minimizing the
// absolute imbalance between the bid and offer quantities. An offer
// is executable at price p if its price is at most p and a bid is
// executable if its price is at least p. The state is updated only
// when the new imbalance is strictly smaller so the lowest price wins
// ties. The prices and quantities can be in either representation;
// the state values are arithmetic.
func ClearingPrice(b share.Backend, offers, bids []Order, grid Grid) (
	*ClearingState, error) {

	if grid.Size < 1 {
		return nil, xerrors.Errorf("auction: grid size %d: %w", grid.Size,
			share.ErrArgument)
	}
	orders := append(append([]Order(nil), offers...), bids...)
	if len(orders) == 0 {
		return nil, xerrors.Errorf("auction: no orders: %w", share.ErrArgument)
	}
	first := orders[0]
	for idx, o := range orders {
		if o.Price == nil || o.Quantity == nil {
			return nil, xerrors.Errorf("auction: order %d: nil value: %w",
				idx, share.ErrArgument)
		}
		if o.Price.Width() != first.Price.Width() ||
			o.Quantity.Width() != first.Quantity.Width() {
			return nil, xerrors.Errorf("auction: order %d: width mismatch: %w",
				idx, share.ErrArgument)
		}
		if o.Price.Batch() != first.Price.Batch() ||
			o.Quantity.Batch() != first.Price.Batch() {
			return nil, xerrors.Errorf("auction: order %d: batch mismatch: %w",
				idx, share.ErrArgument)
		}
	}
	priceWidth := first.Price.Width()
	width := first.Quantity.Width()
	batch := first.Price.Batch()

	last := grid.Price(grid.Size - 1)
	if last < grid.Low || last&share.Mask(priceWidth) != last {
		return nil, xerrors.Errorf("auction: grid %v exceeds price width %d: %w",
			grid, priceWidth, share.ErrArgument)
	}

	c := &clearing{
		b:     b,
		width: width,
		batch: batch,
	}
	offers, err := c.prepare(offers)
	if err != nil {
		return nil, err
	}
	bids, err = c.prepare(bids)
	if err != nil {
		return nil, err
	}

	var state *ClearingState
	for k := 0; k < grid.Size; k++ {
		price, err := b.Constant(priceWidth, share.Boolean,
			constant(grid.Price(k), batch))
		if err != nil {
			return nil, err
		}
		priceArith, err := b.Constant(priceWidth, share.Arithmetic,
			constant(grid.Price(k), batch))
		if err != nil {
			return nil, err
		}
		// offer.Price <= p
		offerSum, err := c.sum(offers, func(o Order) (*share.Value, error) {
			return b.GreaterThan(o.Price, price)
		})
		if err != nil {
			return nil, err
		}
		// bid.Price >= p
		bidSum, err := c.sum(bids, func(o Order) (*share.Value, error) {
			return b.GreaterThan(price, o.Price)
		})
		if err != nil {
			return nil, err
		}
		imbalance, err := c.abs(bidSum, offerSum)
		if err != nil {
			return nil, err
		}
		if state == nil {
			state = &ClearingState{
				MinImbalance:  imbalance,
				ClearingPrice: priceArith,
			}
			continue
		}

		minBool, err := boolean(b, state.MinImbalance)
		if err != nil {
			return nil, err
		}
		imbBool, err := boolean(b, imbalance)
		if err != nil {
			return nil, err
		}
		update, err := b.GreaterThan(minBool, imbBool)
		if err != nil {
			return nil, err
		}
		state.MinImbalance, err = Select(b, update, imbalance,
			state.MinImbalance)
		if err != nil {
			return nil, err
		}
		state.ClearingPrice, err = Select(b, update, priceArith,
			state.ClearingPrice)
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}

type clearing struct {
	b     share.Backend
	width int
	batch int
}

// prepare converts the order prices to boolean and the quantities to
// arithmetic representation.
func (c *clearing) prepare(orders []Order) ([]Order, error) {
	result := make([]Order, len(orders))
	for i, o := range orders {
		price, err := boolean(c.b, o.Price)
		if err != nil {
			return nil, err
		}
		quantity, err := arithmetic(c.b, o.Quantity)
		if err != nil {
			return nil, err
		}
		result[i] = Order{
			Price:    price,
			Quantity: quantity,
		}
	}
	return result, nil
}

// sum returns the sum of the quantities of the orders for which
// excluded returns 0.
func (c *clearing) sum(orders []Order,
	excluded func(o Order) (*share.Value, error)) (*share.Value, error) {

	sum, err := c.b.Constant(c.width, share.Arithmetic,
		constant(0, c.batch))
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		ex, err := excluded(o)
		if err != nil {
			return nil, err
		}
		in, err := c.b.BoolNot(ex)
		if err != nil {
			return nil, err
		}
		ind, err := Indicator(c.b, in, c.width)
		if err != nil {
			return nil, err
		}
		q, err := c.b.Mul(ind, o.Quantity)
		if err != nil {
			return nil, err
		}
		sum, err = c.b.Add(sum, q)
		if err != nil {
			return nil, err
		}
	}
	return sum, nil
}

// abs returns |bid-offer|.
func (c *clearing) abs(bid, offer *share.Value) (*share.Value, error) {
	bidBool, err := boolean(c.b, bid)
	if err != nil {
		return nil, err
	}
	offerBool, err := boolean(c.b, offer)
	if err != nil {
		return nil, err
	}
	negative, err := c.b.GreaterThan(offerBool, bidBool)
	if err != nil {
		return nil, err
	}
	imbalance, err := c.b.Sub(bid, offer)
	if err != nil {
		return nil, err
	}
	flipped, err := c.b.Sub(offer, bid)
	if err != nil {
		return nil, err
	}
	return Select(c.b, negative, flipped, imbalance)
}
