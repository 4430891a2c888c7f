//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
)

// Add adds x and y modulo 2^len(x). The arguments must have the same
// width.
func (b *Builder) Add(x, y []Wire) []Wire {
	return b.addCarry(x, y, nil)
}

func (b *Builder) addCarry(x, y []Wire, cin *Wire) []Wire {
	if len(x) != len(y) {
		panic(fmt.Sprintf("circuit: adder width mismatch: %d != %d",
			len(x), len(y)))
	}
	z := make([]Wire, len(x))

	var c Wire
	var haveCarry bool
	if cin != nil {
		c = *cin
		haveCarry = true
	}
	for i := range x {
		if !haveCarry {
			// Half adder.
			z[i] = b.XOR(x[i], y[i])
			if i+1 < len(x) {
				c = b.AND(x[i], y[i])
				haveCarry = true
			}
			continue
		}
		// s = x XOR y XOR cin
		// cout = cin XOR ((x XOR cin) AND (y XOR cin))
		w1 := b.XOR(y[i], c)
		z[i] = b.XOR(x[i], w1)
		if i+1 < len(x) {
			w2 := b.XOR(x[i], c)
			w3 := b.AND(w1, w2)
			c = b.XOR(c, w3)
		}
	}
	return z
}

// GT tests if x>y for unsigned x and y of the same width.
func (b *Builder) GT(x, y []Wire) Wire {
	if len(x) != len(y) {
		panic(fmt.Sprintf("circuit: comparator width mismatch: %d != %d",
			len(x), len(y)))
	}
	cin := b.Zero()
	for i := range x {
		w1 := b.XNOR(cin, y[i])
		w2 := b.XOR(cin, x[i])
		w3 := b.AND(w1, w2)
		cin = b.XOR(cin, w3)
	}
	return cin
}

// EQ tests if x==y for x and y of the same width.
func (b *Builder) EQ(x, y []Wire) Wire {
	if len(x) != len(y) {
		panic(fmt.Sprintf("circuit: comparator width mismatch: %d != %d",
			len(x), len(y)))
	}
	if len(x) == 1 {
		return b.XNOR(x[0], y[0])
	}
	diff := make([]Wire, len(x))
	for i := range x {
		diff[i] = b.XOR(x[i], y[i])
	}
	for len(diff) > 1 {
		var next []Wire
		for i := 0; i+1 < len(diff); i += 2 {
			next = append(next, b.OR(diff[i], diff[i+1]))
		}
		if len(diff)%2 == 1 {
			next = append(next, diff[len(diff)-1])
		}
		diff = next
	}
	return b.INV(diff[0])
}

// Divide computes the unsigned quotient and remainder of x/d with the
// restoring division algorithm. Division by zero gives an all-ones
// quotient.
func (b *Builder) Divide(x, d []Wire) (q, r []Wire) {
	if len(x) != len(d) {
		panic(fmt.Sprintf("circuit: divider width mismatch: %d != %d",
			len(x), len(d)))
	}
	n := len(x)
	q = make([]Wire, n)
	r = make([]Wire, n)
	for i := range r {
		r[i] = b.Zero()
	}

	// Inverted divisor, extended with one zero bit.
	nd := make([]Wire, n+1)
	for i := range d {
		nd[i] = b.INV(d[i])
	}
	nd[n] = b.One()

	for i := n - 1; i >= 0; i-- {
		// rs = (r << 1) | x[i], n+1 bits.
		rs := make([]Wire, n+1)
		rs[0] = x[i]
		copy(rs[1:], r)

		// t = rs - d = rs + ~d + 1, the final carry is rs >= d.
		t := make([]Wire, n+1)
		c := b.One()
		for j := 0; j <= n; j++ {
			w1 := b.XOR(nd[j], c)
			t[j] = b.XOR(rs[j], w1)
			w2 := b.XOR(rs[j], c)
			w3 := b.AND(w1, w2)
			c = b.XOR(c, w3)
		}
		q[i] = c

		for j := 0; j < n; j++ {
			sel := b.AND(c, b.XOR(t[j], rs[j]))
			r[j] = b.XOR(rs[j], sel)
		}
	}
	return q, r
}

// NewMultiAdder creates a circuit that adds n width-bit values modulo
// 2^width.
func NewMultiAdder(n, width int) (*Circuit, error) {
	b := NewBuilder()
	sum := b.Input("x0", width)
	for i := 1; i < n; i++ {
		in := b.Input(fmt.Sprintf("x%d", i), width)
		sum = b.Add(sum, in)
	}
	b.Output("sum", sum)
	return b.Compile()
}

// NewGreaterThan creates a circuit that tests if x>y for unsigned
// width-bit values.
func NewGreaterThan(width int) (*Circuit, error) {
	b := NewBuilder()
	x := b.Input("x", width)
	y := b.Input("y", width)
	b.Output("gt", []Wire{b.GT(x, y)})
	return b.Compile()
}

// NewEqual creates a circuit that tests if x==y for width-bit values.
func NewEqual(width int) (*Circuit, error) {
	b := NewBuilder()
	x := b.Input("x", width)
	y := b.Input("y", width)
	b.Output("eq", []Wire{b.EQ(x, y)})
	return b.Compile()
}

// NewDivider creates a circuit that computes the unsigned quotient
// and remainder of width-bit values.
func NewDivider(width int) (*Circuit, error) {
	b := NewBuilder()
	x := b.Input("x", width)
	d := b.Input("d", width)
	q, r := b.Divide(x, d)
	b.Output("q", q)
	b.Output("r", r)
	return b.Compile()
}
